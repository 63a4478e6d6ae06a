// Command segctl replays allocation traces against the segregated-fit
// allocator and inspects the resulting heaps.
package main

func main() {
	execute()
}
