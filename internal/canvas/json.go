package canvas

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/specialistvlad/contractgrid/internal/props"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// jsonInstance is the editor wire shape of an Instance.
type jsonInstance struct {
	ID         string                             `json:"id"`
	TemplateID string                             `json:"templateId"`
	Properties map[string]ctyjson.SimpleJSONValue `json:"properties,omitempty"`
}

type jsonState struct {
	Instances   []jsonInstance `json:"instances"`
	Connections []Connection   `json:"connections"`
	Version     uint64         `json:"version,omitempty"`
	Timestamp   *time.Time     `json:"timestamp,omitempty"`
}

// MarshalJSON encodes the state in the editor wire format.
func (s *State) MarshalJSON() ([]byte, error) {
	out := jsonState{
		Instances:   make([]jsonInstance, 0, len(s.Instances)),
		Connections: s.Connections,
		Version:     s.Version,
	}
	if out.Connections == nil {
		out.Connections = []Connection{}
	}
	if !s.Timestamp.IsZero() {
		ts := s.Timestamp
		out.Timestamp = &ts
	}
	for _, inst := range s.Instances {
		ji := jsonInstance{ID: inst.ID, TemplateID: inst.TemplateID}
		if len(inst.Properties) > 0 {
			ji.Properties = make(map[string]ctyjson.SimpleJSONValue, len(inst.Properties))
			for k, v := range inst.Properties {
				ji.Properties[k] = ctyjson.SimpleJSONValue{Value: v}
			}
		}
		out.Instances = append(out.Instances, ji)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the editor wire format. Property values keep the
// shape they had in JSON: strings, numbers, bools and arrays (as tuples).
func (s *State) UnmarshalJSON(data []byte) error {
	var in jsonState
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	decoded := State{
		Connections: in.Connections,
		Version:     in.Version,
	}
	if in.Timestamp != nil {
		decoded.Timestamp = *in.Timestamp
	}
	for _, ji := range in.Instances {
		if ji.ID == "" {
			return fmt.Errorf("instance with template %q has no id", ji.TemplateID)
		}
		inst := Instance{ID: ji.ID, TemplateID: ji.TemplateID, Properties: props.Bag{}}
		for k, v := range ji.Properties {
			inst.Properties[k] = v.Value
		}
		decoded.Instances = append(decoded.Instances, inst)
	}
	*s = decoded
	return nil
}
