/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/hashvault/assetstore/cmd"

func main() {
	cmd.Execute()
}
