// Package convert maps storage models onto campus.v1 wire types.
package convert

import (
	pb "github.com/oggyb/campus-connect/internal/api/campuspb"
	"github.com/oggyb/campus-connect/internal/db"
	"github.com/oggyb/campus-connect/internal/realtime"
)

func Profile(p *db.Profile) *pb.Profile {
	if p == nil {
		return nil
	}
	interests := make([]string, len(p.Interests))
	copy(interests, p.Interests)
	return &pb.Profile{
		ID:              p.ID,
		Username:        p.Username,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Gender:          p.Gender,
		Bio:             p.Bio,
		Interests:       interests,
		YearOfStudy:     int32(p.YearOfStudy),
		LookingFor:      p.LookingFor,
		ProfileImage:    p.ProfileImage,
		CreatedAtUnixMs: p.CreatedAt.UnixMilli(),
		UpdatedAtUnixMs: p.UpdatedAt.UnixMilli(),
	}
}

func Match(m *db.Match) *pb.Match {
	if m == nil {
		return nil
	}
	return &pb.Match{
		ID:              m.ID,
		User1:           m.User1,
		User2:           m.User2,
		CreatedAtUnixMs: m.CreatedAt.UnixMilli(),
	}
}

func Message(m *db.Message) *pb.Message {
	if m == nil {
		return nil
	}
	return &pb.Message{
		ID:              m.ID,
		Sender:          m.Sender,
		Receiver:        m.Receiver,
		Content:         m.Content,
		CreatedAtUnixMs: m.CreatedAt.UnixMilli(),
	}
}

// MessagePayload is the bus representation of a stored message.
func MessagePayload(m *db.Message) realtime.MessagePayload {
	return realtime.MessagePayload{
		ID:              m.ID,
		Sender:          m.Sender,
		Receiver:        m.Receiver,
		Content:         m.Content,
		CreatedAtUnixMs: m.CreatedAt.UnixMilli(),
	}
}

// MessageFromPayload converts a bus event back into the wire type.
func MessageFromPayload(p realtime.MessagePayload) *pb.Message {
	return &pb.Message{
		ID:              p.ID,
		Sender:          p.Sender,
		Receiver:        p.Receiver,
		Content:         p.Content,
		CreatedAtUnixMs: p.CreatedAtUnixMs,
	}
}
