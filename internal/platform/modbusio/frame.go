package modbusio

// packFrame packs frame bytes big-endian, two per register, into regs.
// A trailing odd byte occupies the high half of its register.
func packFrame(regs []uint16, data []byte) {
	for i := 0; i < len(data); i++ {
		r := i / 2
		if r >= len(regs) {
			return
		}
		if i%2 == 0 {
			regs[r] = uint16(data[i]) << 8
		} else {
			regs[r] |= uint16(data[i])
		}
	}
}

// unpackFrame fills buf from big-endian packed registers and returns the
// number of bytes written.
func unpackFrame(buf []byte, regs []uint16) int {
	n := 0
	for i := range buf {
		r := i / 2
		if r >= len(regs) {
			break
		}
		if i%2 == 0 {
			buf[i] = byte(regs[r] >> 8)
		} else {
			buf[i] = byte(regs[r])
		}
		n++
	}
	return n
}

// packRegisters serializes registers to the big-endian wire layout.
func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}

// unpackRegisters parses the big-endian wire layout into registers.
func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}

// bitAt reads bit i from a packed coil/discrete response.
func bitAt(data []byte, i int) bool {
	byteIdx := i / 8
	if byteIdx >= len(data) {
		return false
	}
	return data[byteIdx]&(1<<uint(i%8)) != 0
}
