package matchmaker

import (
	"github.com/google/uuid"

	"roulette/backend/model"
)

// roomDirectory maps participant id -> room and room id -> member pair.
// Every room has exactly two distinct members; rooms are destroyed as a
// whole, never shrunk.
type roomDirectory struct {
	rooms    map[string]model.Room
	byMember map[string]string
}

func newRoomDirectory() *roomDirectory {
	return &roomDirectory{
		rooms:    make(map[string]model.Room),
		byMember: make(map[string]string),
	}
}

func (d *roomDirectory) create(ct model.ChatType, a, b string) model.Room {
	room := model.Room{
		ID:       uuid.NewString(),
		ChatType: ct,
		Members:  [2]string{a, b},
	}
	d.rooms[room.ID] = room
	d.byMember[a] = room.ID
	d.byMember[b] = room.ID
	return room
}

func (d *roomDirectory) roomOf(id string) (model.Room, bool) {
	roomID, ok := d.byMember[id]
	if !ok {
		return model.Room{}, false
	}
	room, ok := d.rooms[roomID]
	return room, ok
}

// partnerOf returns the other member of id's room, if id is in one.
func (d *roomDirectory) partnerOf(id string) (string, bool) {
	room, ok := d.roomOf(id)
	if !ok {
		return "", false
	}
	return room.Other(id)
}

// destroy removes the room and both member mappings. Participants'
// RoomID fields are the caller's responsibility.
func (d *roomDirectory) destroy(roomID string) {
	room, ok := d.rooms[roomID]
	if !ok {
		return
	}
	delete(d.byMember, room.Members[0])
	delete(d.byMember, room.Members[1])
	delete(d.rooms, roomID)
}

func (d *roomDirectory) size() int {
	return len(d.rooms)
}
