package domain

import "time"

// ArchiveChange describes what an update does to the archive flag.
type ArchiveChange int

// Archive changes.
const (
	ArchiveUnchanged ArchiveChange = iota
	ArchiveSet                     // archived=true, archived_date=ArchivedAt
	ArchiveRemove                  // drop the archived attribute
)

// BookUpdate is a partial update. Nil fields are left untouched.
type BookUpdate struct {
	Status     *Status
	PagesRead  *int
	TotalPages *int
	DueDate    *string
	Rating     *int // 0 clears the rating

	Archive    ArchiveChange
	ArchivedAt time.Time
}

// IsEmpty reports whether the update would change nothing.
func (u BookUpdate) IsEmpty() bool {
	return u.Status == nil && u.PagesRead == nil && u.TotalPages == nil &&
		u.DueDate == nil && u.Rating == nil && u.Archive == ArchiveUnchanged
}

// Apply writes the update onto b. Unarchiving keeps archived_date so the
// last archive time stays visible.
func (u BookUpdate) Apply(b *Book) {
	if u.Status != nil {
		b.Status = *u.Status
	}
	if u.PagesRead != nil {
		b.PagesRead = *u.PagesRead
	}
	if u.TotalPages != nil {
		b.TotalPages = *u.TotalPages
	}
	if u.DueDate != nil {
		b.DueDate = *u.DueDate
	}
	if u.Rating != nil {
		if *u.Rating == 0 {
			b.Rating = nil
		} else {
			r := *u.Rating
			b.Rating = &r
		}
	}
	switch u.Archive {
	case ArchiveSet:
		at := u.ArchivedAt
		b.Archived = true
		b.ArchivedDate = &at
	case ArchiveRemove:
		b.Archived = false
	}
}
