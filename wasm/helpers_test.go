package wasm_test

// sampleModule is a hand-assembled module exercising most sections. The
// offsets named in the tests below refer to this layout.
//
//	0x00  header
//	0x08  type    (i32) -> i32
//	0x10  import  env.mem memory min=1
//	0x1e  func    [0]
//	0x22  export  "f" func 0
//	0x29  code    local i32; local.get 0; memory.grow 0
//	0x35  custom  "x" "hi"
var sampleModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x06, 0x01, 0x60, 0x01, 0x7f, 0x01, 0x7f,
	0x02, 0x0c, 0x01, 0x03, 'e', 'n', 'v', 0x03, 'm', 'e', 'm', 0x02, 0x00, 0x01,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x05, 0x01, 0x01, 'f', 0x00, 0x00,
	0x0a, 0x0a, 0x01, 0x08, 0x01, 0x01, 0x7f, 0x20, 0x00, 0x40, 0x00, 0x0b,
	0x00, 0x04, 0x01, 'x', 'h', 'i',
}

// memoryModule declares one memory with min=1 and no maximum.
var memoryModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x05, 0x03, 0x01, 0x00, 0x01,
}

func header() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
}

// withCode wraps raw function body bytes (locals + instructions + end) in
// a module with a single () -> () function.
func withCode(body ...byte) []byte {
	out := header()
	out = append(out, 0x01, 0x04, 0x01, 0x60, 0x00, 0x00)
	out = append(out, 0x03, 0x02, 0x01, 0x00)
	entry := append([]byte{byte(len(body))}, body...)
	out = append(out, 0x0a, byte(len(entry)+1), 0x01)
	return append(out, entry...)
}
