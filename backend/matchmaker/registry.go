package matchmaker

import "roulette/backend/model"

// registry holds per-connection participant state. All lookups are by
// connection id; operations on unknown ids are no-ops.
type registry struct {
	participants map[string]*model.Participant
}

func newRegistry() *registry {
	return &registry{
		participants: make(map[string]*model.Participant),
	}
}

// register creates a participant with defaults (video chat, unknown
// location). Re-registering an existing id returns the existing entry.
func (r *registry) register(id string) *model.Participant {
	if p, ok := r.participants[id]; ok {
		return p
	}
	p := &model.Participant{
		ID:       id,
		ChatType: model.ChatTypeVideo,
		Meta:     model.NewMetadata("", ""),
	}
	r.participants[id] = p
	return p
}

func (r *registry) get(id string) (*model.Participant, bool) {
	p, ok := r.participants[id]
	return p, ok
}

func (r *registry) remove(id string) {
	delete(r.participants, id)
}

func (r *registry) size() int {
	return len(r.participants)
}
