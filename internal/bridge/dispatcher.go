package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dodoapps/dodopass/internal/item"
	"github.com/dodoapps/dodopass/internal/vaultengine"
)

// EngineDispatcher adapts a vaultengine.Engine to the Dispatcher
// interface the bridge server calls into.
type EngineDispatcher struct {
	Engine *vaultengine.Engine
}

func (d EngineDispatcher) Handle(command string, params json.RawMessage) (any, error) {
	switch command {
	case "unlock":
		var p struct {
			Password string `json:"password"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		if err := d.Engine.Unlock(context.Background(), p.Password); err != nil {
			return nil, err
		}
		return map[string]any{"state": string(d.Engine.State())}, nil

	case "lock":
		d.Engine.Lock()
		return map[string]any{"state": string(d.Engine.State())}, nil

	case "state":
		return map[string]any{"state": string(d.Engine.State())}, nil

	case "search":
		var p struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		return d.Engine.Search(p.Query), nil

	case "list_items":
		return d.Engine.ListItems()

	case "get_item":
		var p struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		return d.Engine.GetItem(p.ID)

	case "delete_item":
		var p struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		if err := d.Engine.DeleteItem(p.ID); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": p.ID}, nil

	case "add_item":
		var rec item.Record
		if err := json.Unmarshal(params, &rec); err != nil {
			return nil, err
		}
		if err := d.Engine.AddItem(&rec); err != nil {
			return nil, err
		}
		return rec, nil

	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}
}
