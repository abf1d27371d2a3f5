package capture

import (
	"fmt"
)

// PACKET_MMAP alignment rules: frames align to TPACKET_ALIGNMENT, blocks are
// a multiple of both the page size and the frame size.
const (
	tpacketAlignment = 16
	tpacketHdrLen    = 52 // TPACKET3 per-frame header, rounded up
	targetBlockSize  = 1 << 20
)

// ringGeometry derives frame size, block size, and block count for a TPacket
// ring from a memory budget in MB and the configured snapshot length. The
// block is the smallest page-and-frame multiple, scaled up toward 1 MB so
// the ring uses fewer, larger blocks.
func ringGeometry(budgetMB, snapLen, pageSize int) (frameSize, blockSize, numBlocks int, err error) {
	if budgetMB <= 0 {
		return 0, 0, 0, fmt.Errorf("buffer budget must be positive, got %d MB", budgetMB)
	}
	if snapLen <= 0 {
		return 0, 0, 0, fmt.Errorf("snap length must be positive, got %d", snapLen)
	}
	if pageSize <= 0 || pageSize%tpacketAlignment != 0 {
		return 0, 0, 0, fmt.Errorf("page size must be a positive multiple of %d, got %d", tpacketAlignment, pageSize)
	}

	rawFrame := tpacketHdrLen + snapLen
	frameSize = ((rawFrame + tpacketAlignment - 1) / tpacketAlignment) * tpacketAlignment

	blockSize = lcm(pageSize, frameSize)
	if blockSize < targetBlockSize {
		blockSize *= (targetBlockSize + blockSize - 1) / blockSize
	}

	numBlocks = budgetMB * 1024 * 1024 / blockSize
	if numBlocks < 1 {
		numBlocks = 1
	}

	return frameSize, blockSize, numBlocks, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return (a * b) / gcd(a, b)
}
