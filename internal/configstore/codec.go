package configstore

import "encoding/json"

// Decode converts a raw document returned by Store into one of the typed
// entities above via a JSON round trip, the same shape both backends already
// store documents in (MemoryStore keeps plain maps, MongoStore keeps bson.M
// which marshals the same way for these json-tagged fields).
func Decode(doc map[string]interface{}, out interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Encode converts a typed entity into the map[string]interface{} shape Store
// methods accept, via the same JSON round trip.
func Encode(in interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
