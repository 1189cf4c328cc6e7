package query

import "strconv"

const DefaultMaxSlots = 5

// PageItem is one token of a windowed pager: a page number or a
// disabled ellipsis marker.
type PageItem struct {
	Page     int
	Ellipsis bool
}

func (i PageItem) String() string {
	if i.Ellipsis {
		return "..."
	}
	return strconv.Itoa(i.Page)
}

func pageItem(n int) PageItem { return PageItem{Page: n} }
func ellipsisItem() PageItem  { return PageItem{Ellipsis: true} }

// Window turns (currentPage, totalPages) into the compact page list
// rendered under every table. For small totals the full range comes
// back verbatim; otherwise the window keeps the first page, the last
// page, and the immediate neighbors of the current page, with ellipsis
// markers for the gaps.
//
// Adjacent duplicate ellipsis tokens can occur for totals just above
// maxSlots; they render as individual disabled markers and are
// deliberately not collapsed here.
func Window(current, total, maxSlots int) []PageItem {
	if maxSlots <= 0 {
		maxSlots = DefaultMaxSlots
	}
	if total < 1 {
		return nil
	}

	if total <= maxSlots {
		items := make([]PageItem, 0, total)
		for p := 1; p <= total; p++ {
			items = append(items, pageItem(p))
		}
		return items
	}

	items := []PageItem{pageItem(1)}

	if current > 3 {
		items = append(items, ellipsisItem())
	}

	lo := current - 1
	if lo < 2 {
		lo = 2
	}
	hi := current + 1
	if hi > total-1 {
		hi = total - 1
	}
	for p := lo; p <= hi; p++ {
		items = append(items, pageItem(p))
	}

	if current < total-2 {
		items = append(items, ellipsisItem())
	}

	return append(items, pageItem(total))
}
