// Command emalloc exercises tracked buffers from the command line.
package main

func main() {
	execute()
}
