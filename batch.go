package wirecall

import (
	"context"
	"encoding/json"
)

// Batch accumulates calls and notifications to send as a single
// JSON-RPC batch array.
type Batch struct {
	client *Client
	elems  []*BatchElem
}

// BatchElem is one entry of a batch. After Send, either Result or Err is
// set; notifications receive neither.
type BatchElem struct {
	Method string
	Result json.RawMessage
	Err    error

	client *Client
	req    *Request
}

// NewBatch returns an empty batch bound to the client.
func (c *Client) NewBatch() *Batch {
	return &Batch{client: c}
}

// Call queues a call. Shaping errors are recorded on the returned
// element and reported by Send before anything is sent.
func (b *Batch) Call(method string, args ...interface{}) *BatchElem {
	return b.add(method, false, args)
}

// Notify queues a notification. It produces no response entry.
func (b *Batch) Notify(method string, args ...interface{}) *BatchElem {
	return b.add(method, true, args)
}

// Send delivers the batch in one round trip and distributes the
// responses to the queued elements by id.
func (b *Batch) Send(ctx context.Context) error {
	if len(b.elems) == 0 {
		return UsageError("empty batch")
	}
	reqs := make([]*Request, 0, len(b.elems))
	calls := 0
	for _, elem := range b.elems {
		if elem.Err != nil {
			return elem.Err
		}
		reqs = append(reqs, elem.req)
		if elem.req.ID != nil {
			calls++
		}
	}
	payload, err := b.client.encode(reqs)
	if err != nil {
		return err
	}
	transport, err := b.client.transport()
	if err != nil {
		return err
	}
	if calls == 0 {
		// All notifications: the server sends no response array.
		return transport.SendNotification(ctx, payload)
	}
	body, err := transport.Send(ctx, payload)
	if err != nil {
		return err
	}
	var resps []Response
	if err := b.client.decodeResponse(body, &resps); err != nil {
		return b.singleError(body, err)
	}
	b.deliver(resps)
	return nil
}

// singleError recovers the server's error when a batch is answered with
// one error object instead of a response array, which is how servers
// reject a batch they cannot process at all.
func (b *Batch) singleError(body []byte, decodeErr error) error {
	var resp Response
	if err := b.client.decode(body, &resp); err != nil {
		return decodeErr
	}
	if resp.Error != nil {
		return resp.Error
	}
	return decodeErr
}

// Unmarshal unpacks the element result into the given value.
func (elem *BatchElem) Unmarshal(result interface{}) error {
	if elem.Err != nil {
		return elem.Err
	}
	if elem.Result == nil {
		return UsageError("batch element has no result")
	}
	if elem.client != nil {
		return elem.client.decode(elem.Result, result)
	}
	return json.Unmarshal(elem.Result, result)
}

func (b *Batch) add(method string, notify bool, args []interface{}) *BatchElem {
	elem := &BatchElem{
		Method: method,
		client: b.client,
	}
	req, err := b.client.newRequest(method, notify, args)
	if err != nil {
		elem.Err = err
	} else {
		elem.req = req
	}
	b.elems = append(b.elems, elem)
	return elem
}

// deliver matches response entries to elements by id. Error entries the
// server could not attribute (null id) are handed out in order to
// elements left without a response.
func (b *Batch) deliver(resps []Response) {
	byID := make(map[string]*Response, len(resps))
	var orphans []*ErrResponse
	for i := range resps {
		resp := &resps[i]
		if resp.Error != nil && isNullID(resp.ID) {
			orphans = append(orphans, resp.Error)
			continue
		}
		byID[string(resp.ID)] = resp
	}
	for _, elem := range b.elems {
		if elem.req.ID == nil {
			continue
		}
		resp, ok := byID[string(elem.req.ID)]
		if !ok {
			if len(orphans) > 0 {
				elem.Err = orphans[0]
				orphans = orphans[1:]
				continue
			}
			elem.Err = errResponsef("no response for request id %s", elem.req.ID)
			continue
		}
		if err := checkResponse(elem.req.ID, resp); err != nil {
			elem.Err = err
			continue
		}
		elem.Result = resp.Result
	}
}

func isNullID(id json.RawMessage) bool {
	return id == nil || string(id) == "null"
}
