package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/hyponet/eventbus"

	"github.com/basaltfs/basalt/pkg/types"
)

func BuildEntryEvent(actionType, path string, entry *types.Entry) *types.EntryEvent {
	return &types.EntryEvent{
		Id:          uuid.New().String(),
		Type:        actionType,
		Source:      "mgmCore",
		SpecVersion: "1.0",
		Time:        time.Now(),
		RefID:       entry.ID,
		Data: types.EventData{
			ID:      entry.ID,
			IsGroup: entry.IsGroup,
			Path:    path,
			Size:    entry.Size,
		},
	}
}

// Publish fans an entry action out on the process-wide bus. Subscribers run
// on bus goroutines and must not touch the namespace lock.
func Publish(actionType, path string, entry *types.Entry) {
	eventbus.Publish(EntryActionTopic(actionType), BuildEntryEvent(actionType, path, entry))
}
