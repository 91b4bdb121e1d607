// Command wasmedit rewrites and inspects WebAssembly core modules.
package main

import "context"

func main() {
	newRootCommand(newGlobalState(context.Background())).execute()
}
