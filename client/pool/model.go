package pool

import (
	"net"
	"strconv"
	"time"
)

// Key identifies a destination.
type Key struct {
	Host string
	Port int
}

func (k Key) String() string {
	return net.JoinHostPort(k.Host, strconv.Itoa(k.Port))
}

// Limits bounds the number of idle connections held.
// A zero field means unlimited.
type Limits struct {
	TotalSize       int `json:"totalSize" validate:"gte=0"`
	DestinationSize int `json:"destinationSize" validate:"gte=0"`
}

type entry struct {
	conn    net.Conn
	putTime time.Time
}
