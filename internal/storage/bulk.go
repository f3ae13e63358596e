package storage

import "github.com/jackc/pgx/v4"

type memberRow struct {
	chatID, userID int64
}

// memberRows builds the chat_members rows for a new group chat: the creator
// plus every distinct listed member, with the creator never duplicated even
// when present in the members list
func memberRows(chatID, creator int64, members []int64) []memberRow {
	rows := []memberRow{{chatID, creator}}
	seen := map[int64]struct{}{creator: {}}
	for _, m := range members {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		rows = append(rows, memberRow{chatID, m})
	}

	return rows
}

func (mr memberRow) toInterface() []interface{} {
	return []interface{}{mr.chatID, mr.userID}
}

type memberBulk struct {
	rows []memberRow
	idx  int
}

func copyFromMembers(rows []memberRow) pgx.CopyFromSource {
	return &memberBulk{
		rows: rows,
		idx:  -1,
	}
}

func (mb *memberBulk) Next() bool {
	mb.idx++
	return mb.idx < len(mb.rows)
}

func (mb *memberBulk) Values() ([]interface{}, error) {
	return mb.rows[mb.idx].toInterface(), nil
}

func (mb *memberBulk) Err() error {
	return nil
}
