package input

// Windows virtual-key code to macOS CGKeyCode (kVK_*) mapping.
var vkToMac = map[uint32]uint16{
	// Letters
	0x41: 0x00, // A
	0x42: 0x0B, // B
	0x43: 0x08, // C
	0x44: 0x02, // D
	0x45: 0x0E, // E
	0x46: 0x03, // F
	0x47: 0x05, // G
	0x48: 0x04, // H
	0x49: 0x22, // I
	0x4A: 0x26, // J
	0x4B: 0x28, // K
	0x4C: 0x25, // L
	0x4D: 0x2E, // M
	0x4E: 0x2D, // N
	0x4F: 0x1F, // O
	0x50: 0x23, // P
	0x51: 0x0C, // Q
	0x52: 0x0F, // R
	0x53: 0x01, // S
	0x54: 0x11, // T
	0x55: 0x20, // U
	0x56: 0x09, // V
	0x57: 0x0D, // W
	0x58: 0x07, // X
	0x59: 0x10, // Y
	0x5A: 0x06, // Z

	// Digits
	0x30: 0x1D,
	0x31: 0x12,
	0x32: 0x13,
	0x33: 0x14,
	0x34: 0x15,
	0x35: 0x17,
	0x36: 0x16,
	0x37: 0x1A,
	0x38: 0x1C,
	0x39: 0x19,

	// F1-F12
	0x70: 0x7A,
	0x71: 0x78,
	0x72: 0x63,
	0x73: 0x76,
	0x74: 0x60,
	0x75: 0x61,
	0x76: 0x62,
	0x77: 0x64,
	0x78: 0x65,
	0x79: 0x6D,
	0x7A: 0x67,
	0x7B: 0x6F,

	0x08: 0x33, // backspace -> delete
	0x09: 0x30, // tab
	0x0D: 0x24, // enter -> return
	0x10: 0x38, // shift
	0x11: 0x3B, // ctrl
	0x12: 0x3A, // alt -> option
	0x14: 0x39, // caps lock
	0x1B: 0x35, // esc
	0x20: 0x31, // space

	0x25: 0x7B, // left
	0x26: 0x7E, // up
	0x27: 0x7C, // right
	0x28: 0x7D, // down

	0x21: 0x74, // page up
	0x22: 0x79, // page down
	0x23: 0x77, // end
	0x24: 0x73, // home
	0x2D: 0x72, // insert -> help
	0x2E: 0x75, // delete -> forward delete

	0x5B: 0x37, // cmd
	0x5C: 0x36, // cmd_r
	0xA0: 0x38, // shift
	0xA1: 0x3C, // shift_r
	0xA2: 0x3B, // ctrl
	0xA3: 0x3E, // ctrl_r
	0xA4: 0x3A, // alt -> option
	0xA5: 0x3D, // alt_r -> right option

	0xBA: 0x29, // ;
	0xBB: 0x18, // =
	0xBC: 0x2B, // ,
	0xBD: 0x1B, // -
	0xBE: 0x2F, // .
	0xBF: 0x2C, // /
	0xC0: 0x32, // `
	0xDB: 0x21, // [
	0xDC: 0x2A, // \
	0xDD: 0x1E, // ]
	0xDE: 0x27, // '
}

// MacKeyCode returns the macOS virtual key code for a key identifier.
func MacKeyCode(name string) (uint16, bool) {
	vk, ok := KeyCode(name)
	if !ok {
		return 0, false
	}
	code, ok := vkToMac[vk]
	return code, ok
}
