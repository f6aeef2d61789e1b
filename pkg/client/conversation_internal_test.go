package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge_OrdersAndDedupes(t *testing.T) {
	var delivered []uint64
	cv := &Conversation{
		seen:      make(map[uint64]struct{}),
		onMessage: func(m *Message) { delivered = append(delivered, m.ID) },
	}

	cv.merge([]*Message{{ID: 3, CreatedAtUnixMs: 30}, {ID: 1, CreatedAtUnixMs: 10}})
	// at-least-once: 3 again, plus one in between and a same-timestamp tie
	cv.merge([]*Message{{ID: 3, CreatedAtUnixMs: 30}, {ID: 2, CreatedAtUnixMs: 20}, {ID: 4, CreatedAtUnixMs: 20}})

	var ids []uint64
	for _, m := range cv.Messages() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []uint64{1, 2, 4, 3}, ids)
	assert.Equal(t, []uint64{1, 3, 2, 4}, delivered)
}

func TestPending(t *testing.T) {
	cv := &Conversation{}
	cv.addPending(Draft{ClientID: "a", Content: "x"})
	cv.addPending(Draft{ClientID: "b", Content: "y"})
	cv.removePending("a")

	assert.Equal(t, []Draft{{ClientID: "b", Content: "y"}}, cv.Pending())
}
