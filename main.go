/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/eventzen/apiserver/cmd"

func main() {
	cmd.Execute()
}
