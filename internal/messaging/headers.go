package messaging

import "github.com/segmentio/kafka-go"

// EventTypeHeader names the Kafka header that carries the event type.
const EventTypeHeader = "event-type"

// Headers gives read/write access to a message's headers. It also serves as
// the OpenTelemetry TextMapCarrier for trace propagation.
type Headers struct {
	msg *kafka.Message
}

func HeadersOf(msg *kafka.Message) Headers {
	return Headers{msg: msg}
}

func (h Headers) EventType() string {
	return h.Get(EventTypeHeader)
}

func (h Headers) SetEventType(eventType string) {
	h.Set(EventTypeHeader, eventType)
}

func (h Headers) Get(key string) string {
	for _, header := range h.msg.Headers {
		if header.Key == key {
			return string(header.Value)
		}
	}
	return ""
}

// Set overwrites the first header named key, or appends one.
func (h Headers) Set(key, value string) {
	for i := range h.msg.Headers {
		if h.msg.Headers[i].Key == key {
			h.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	h.msg.Headers = append(h.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (h Headers) Keys() []string {
	keys := make([]string, 0, len(h.msg.Headers))
	for _, header := range h.msg.Headers {
		keys = append(keys, header.Key)
	}
	return keys
}
