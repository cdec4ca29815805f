package drc

import (
	"github.com/edsrzf/mmap-go"
	"github.com/v2pro/plz"
	"github.com/v2pro/plz/countlog"
)

// arena hands out bump allocated chunks of anonymous memory, addressed
// by stable uint32 offsets. Offset zero is burned at construction so
// no chunk ever gets the null address, and the heap above only asks
// for sizes in multiples of 8, keeping every address clear of the
// immediate tag bit. An allocation never straddles a page, the tail
// bytes of a too full page stay dead.
type arena struct {
	pages                []mmap.MMap
	pageSizeInPowerOfTwo uint8 // 2 ^ x
	pageSize             int
	maxPagesCount        int
	next                 uint32
}

func newArena(pageSizeInPowerOfTwo uint8, maxPagesCount int) *arena {
	allocator := &arena{
		pageSizeInPowerOfTwo: pageSizeInPowerOfTwo,
		pageSize:             1 << pageSizeInPowerOfTwo,
		maxPagesCount:        maxPagesCount,
	}
	allocator.grow()
	allocator.next = 8
	return allocator
}

func (allocator *arena) allocate(size int) (uint32, []byte) {
	if size > allocator.pageSize {
		countlog.Fatal("event!drc.page size is too small",
			"size", size,
			"pageSize", allocator.pageSize)
		panic("page size is too small")
	}
	pageSeq := allocator.next >> allocator.pageSizeInPowerOfTwo
	relativeOffset := int(allocator.next - (pageSeq << allocator.pageSizeInPowerOfTwo))
	if allocator.pageSize-relativeOffset < size {
		// rotate to the next page
		pageSeq++
		allocator.next = pageSeq << allocator.pageSizeInPowerOfTwo
		relativeOffset = 0
	}
	for int(pageSeq) >= len(allocator.pages) {
		allocator.grow()
	}
	offset := allocator.next
	allocator.next += uint32(size)
	return offset, allocator.pages[pageSeq][relativeOffset : relativeOffset+size]
}

func (allocator *arena) slice(offset uint32, size int) []byte {
	pageSeq := offset >> allocator.pageSizeInPowerOfTwo
	relativeOffset := offset - (pageSeq << allocator.pageSizeInPowerOfTwo)
	buf := allocator.pages[pageSeq][relativeOffset:]
	if len(buf) < size {
		panic("size overflow the arena page")
	}
	return buf[:size]
}

func (allocator *arena) grow() {
	if len(allocator.pages) >= allocator.maxPagesCount {
		countlog.Fatal("event!drc.arena exhausted",
			"pages", len(allocator.pages),
			"maxPagesCount", allocator.maxPagesCount)
		panic("arena exhausted")
	}
	page, err := mmap.MapRegion(nil, allocator.pageSize, mmap.RDWR, mmap.ANON, 0)
	countlog.TraceCall("callee!mmap.MapRegion", err)
	if err != nil {
		panic(err)
	}
	allocator.pages = append(allocator.pages, page)
}

func (allocator *arena) Close() error {
	var errs []error
	for _, page := range allocator.pages {
		err := page.Unmap()
		countlog.TraceCall("callee!page.Unmap", err)
		if err != nil {
			errs = append(errs, err)
		}
	}
	allocator.pages = nil
	return plz.MergeErrors(errs...)
}
