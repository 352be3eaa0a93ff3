// zkrelay 节点入口
package main

func main() {
	Execute()
}
