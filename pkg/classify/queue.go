package classify

import "github.com/sgaunet/s3ingest/pkg/dto"

// QueueBuilder reduces classified items to a scan queue: every bug report,
// then the latest diagnostic item of each directory.
type QueueBuilder struct {
	bugReports []dto.ClassifiedItem
	dirOrder   []string
	latest     map[string]dto.ClassifiedItem
	counts     map[string]int
}

// NewQueueBuilder returns an empty builder.
func NewQueueBuilder() *QueueBuilder {
	return &QueueBuilder{
		latest: make(map[string]dto.ClassifiedItem),
		counts: make(map[string]int),
	}
}

// Add records one item. Within a directory the first item seen is kept until
// one with a strictly greater timestamp shows up.
func (b *QueueBuilder) Add(item dto.ClassifiedItem) {
	if item.Kind == dto.KindBugReport {
		b.bugReports = append(b.bugReports, item)
		return
	}
	b.counts[item.Directory]++
	cur, seen := b.latest[item.Directory]
	if !seen {
		b.dirOrder = append(b.dirOrder, item.Directory)
		b.latest[item.Directory] = item
		return
	}
	if item.Timestamp > cur.Timestamp {
		b.latest[item.Directory] = item
	}
}

// Directories is the number of distinct directories added so far.
func (b *QueueBuilder) Directories() int {
	return len(b.dirOrder)
}

// BugReports is the number of bug report items added so far.
func (b *QueueBuilder) BugReports() int {
	return len(b.bugReports)
}

// Items returns the queue in processing order. Directories keep first-seen order.
func (b *QueueBuilder) Items() []dto.ClassifiedItem {
	queue := make([]dto.ClassifiedItem, 0, len(b.bugReports)+len(b.dirOrder))
	queue = append(queue, b.bugReports...)
	for _, dir := range b.dirOrder {
		item := b.latest[dir]
		item.FilesInDirectory = b.counts[dir]
		queue = append(queue, item)
	}
	return queue
}
