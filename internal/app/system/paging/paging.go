// internal/app/system/paging/paging.go
package paging

// PageSize is the default number of messages returned per page.
// Message pages are fetched newest-first (descending _id); clients
// reverse the slice to ascending order before rendering, so "page 1"
// is always the most recent slice.
const PageSize = 50

// LimitPlusOne returns PageSize+1 as int64 for look-ahead pagination
// (fetch one extra document to detect hasMore).
func LimitPlusOne() int64 { return int64(PageSize + 1) }

// Result holds the output of TrimPage.
type Result struct {
	HasMore bool
}

// TrimPage trims a slice fetched with LimitPlusOne. It modifies the
// slice in place: if more than PageSize rows came back, the extra row
// is dropped and HasMore is true.
func TrimPage[T any](rows *[]T) Result {
	return trimPageWithSize(rows, PageSize)
}

func trimPageWithSize[T any](rows *[]T, pageSize int) Result {
	if len(*rows) > pageSize {
		*rows = (*rows)[:pageSize]
		return Result{HasMore: true}
	}
	return Result{}
}

// Reverse reverses a slice in place. Used to restore ascending
// chronological order after a descending page fetch.
func Reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
