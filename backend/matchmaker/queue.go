package matchmaker

import "roulette/backend/model"

// queues holds one FIFO waiting list per chat type. A participant id
// appears in at most one list at a time; enqueue is a no-op for ids
// already present.
type queues struct {
	byType map[model.ChatType][]string
}

func newQueues() *queues {
	return &queues{
		byType: make(map[model.ChatType][]string),
	}
}

func (q *queues) enqueue(ct model.ChatType, id string) {
	if q.contains(ct, id) {
		return
	}
	q.byType[ct] = append(q.byType[ct], id)
}

func (q *queues) remove(ct model.ChatType, id string) {
	list := q.byType[ct]
	for i, qid := range list {
		if qid == id {
			q.byType[ct] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func (q *queues) contains(ct model.ChatType, id string) bool {
	for _, qid := range q.byType[ct] {
		if qid == id {
			return true
		}
	}
	return false
}

func (q *queues) size(ct model.ChatType) int {
	return len(q.byType[ct])
}

func (q *queues) dequeueFirst(ct model.ChatType) (string, bool) {
	list := q.byType[ct]
	if len(list) == 0 {
		return "", false
	}
	q.byType[ct] = list[1:]
	return list[0], true
}

// findAndRemove scans the queue in order and removes the first id
// satisfying pred.
func (q *queues) findAndRemove(ct model.ChatType, pred func(string) bool) (string, bool) {
	for i, qid := range q.byType[ct] {
		if pred(qid) {
			q.byType[ct] = append(q.byType[ct][:i], q.byType[ct][i+1:]...)
			return qid, true
		}
	}
	return "", false
}
