// Command hoist is a meta-tool for Zephyr firmware projects. It wraps west
// builds with declarative build type configuration, packages twister build
// output into versioned flash bundles, and produces full release trees.
package main

func main() {
	execute()
}
