package main

import "github.com/fwarner/kidlock/cmd/klctl/arg"

func main() {
	arg.Execute()
}
