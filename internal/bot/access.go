package bot

// adminSet answers allow-list membership checks for admin-only commands.
type adminSet struct {
	ids map[int64]struct{}
}

func newAdminSet(ids []int64) *adminSet {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return &adminSet{ids: set}
}

// Contains reports whether id is on the allow-list.
func (a *adminSet) Contains(id int64) bool {
	_, ok := a.ids[id]
	return ok
}
