package notify

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/bytedance/sonic"

	"github.com/moyoez/detectview/tool"
	"github.com/moyoez/detectview/types"
)

// NotifyWriteChunkSize is the chunk size when writing payload to Unix socket (avoid large single write).
const NotifyWriteChunkSize = 32 * 1024 // 32KB

// DefaultNoticeTTL is how long a notice stays active before it is dismissed.
const DefaultNoticeTTL = 5 * time.Second

var (
	// UnixSocketTimeout is the timeout for Unix socket operations
	UnixSocketTimeout = 3 * time.Second
)

// Center posts transient notices. Active notices live in a ttl cache and vanish on their own;
// every notice is also logged, broadcast to the registered hubs and optionally forwarded
// to a Unix socket listener (e.g. a desktop notifier).
type Center struct {
	mu         sync.Mutex
	ttl        time.Duration
	notices    *ttlworker.Cache[string, *types.Notice]
	order      []string
	hubs       []types.NotifyHub
	socketPath string
	now        func() time.Time
}

// NewCenter creates a notification center whose notices expire after ttl.
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	return &Center{
		ttl:     ttl,
		notices: ttlworker.NewCache[string, *types.Notice](ttl),
		now:     time.Now,
	}
}

// AddHub registers a broadcast target.
func (c *Center) AddHub(h types.NotifyHub) {
	if h == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hubs = append(c.hubs, h)
}

// SetSocketPath enables forwarding to a Unix socket. Empty disables it.
func (c *Center) SetSocketPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.socketPath = path
}

// Post creates and publishes a notice.
func (c *Center) Post(level types.NoticeLevel, message string) *types.Notice {
	now := c.now()
	notice := &types.Notice{
		ID:        tool.GenerateRandomUUID(),
		Level:     level,
		Title:     titleFor(level),
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.mu.Lock()
	c.notices.Set(notice.ID, notice)
	c.order = append(c.order, notice.ID)
	hubs := append([]types.NotifyHub(nil), c.hubs...)
	socketPath := c.socketPath
	c.mu.Unlock()

	switch level {
	case types.NoticeError:
		tool.DefaultLogger.Errorf("[Notice] %s", message)
	case types.NoticeWarning:
		tool.DefaultLogger.Warnf("[Notice] %s", message)
	default:
		tool.DefaultLogger.Infof("[Notice] %s", message)
	}

	notification := &types.Notification{
		Type:    types.NotifyTypeNotice,
		Title:   notice.Title,
		Message: notice.Message,
		Data: map[string]any{
			"id":        notice.ID,
			"level":     string(notice.Level),
			"expiresAt": notice.ExpiresAt,
		},
	}
	for _, h := range hubs {
		h.Broadcast(notification)
	}
	if socketPath != "" {
		if err := SendNotification(notification, socketPath); err != nil {
			tool.DefaultLogger.Debugf("[Notice] unix socket forward failed: %v", err)
		}
	}
	return notice
}

// Success, Error and Info are shorthands for Post.
func (c *Center) Success(message string) { c.Post(types.NoticeSuccess, message) }
func (c *Center) Error(message string)   { c.Post(types.NoticeError, message) }
func (c *Center) Info(message string)    { c.Post(types.NoticeInfo, message) }

// Active returns the notices that have not been dismissed yet, oldest first.
func (c *Center) Active() []types.Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	out := make([]types.Notice, 0, len(c.order))
	kept := c.order[:0]
	for _, id := range c.order {
		n := c.notices.Get(id)
		if n == nil || !now.Before(n.ExpiresAt) {
			c.notices.Delete(id)
			continue
		}
		kept = append(kept, id)
		out = append(out, *n)
	}
	c.order = kept
	return out
}

// Dismiss removes a notice before it expires.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices.Delete(id)
}

func titleFor(level types.NoticeLevel) string {
	switch level {
	case types.NoticeSuccess:
		return "Success"
	case types.NoticeError:
		return "Error"
	default:
		return "Notice"
	}
}

// SendNotification sends notification via Unix Domain Socket: a 4-byte little-endian
// length prefix followed by the JSON payload; the listener may answer with {"error": "..."}.
func SendNotification(notification *types.Notification, socketPath string) error {
	if socketPath == "" {
		return fmt.Errorf("unix socket path is empty")
	}

	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		return fmt.Errorf("unix socket not found: %s", socketPath)
	}

	var payload []byte
	var err error
	if notification != nil {
		payload, err = sonic.Marshal(notification)
		if err != nil {
			return fmt.Errorf("failed to serialize notification data: %v", err)
		}
	} else {
		payload = []byte("{}")
	}

	if len(payload) > NotifyWriteChunkSize {
		return fmt.Errorf("notification payload too large: %d bytes (max %d)", len(payload), NotifyWriteChunkSize)
	}

	conn, err := net.DialTimeout("unix", socketPath, UnixSocketTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to Unix socket %s: %v", socketPath, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close Unix socket connection: %v", err)
		}
	}()

	if err := conn.SetDeadline(time.Now().Add(UnixSocketTimeout)); err != nil {
		tool.DefaultLogger.Errorf("Failed to set deadline: %v", err)
	}

	lengthBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lengthBuf, uint32(len(payload)))
	if _, err := conn.Write(lengthBuf); err != nil {
		return fmt.Errorf("failed to write length to Unix socket: %v", err)
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("failed to write payload to Unix socket: %v", err)
	}

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read response from Unix socket: %v", err)
	}
	if n > 0 {
		var response map[string]any
		if err := sonic.Unmarshal(buf[:n], &response); err != nil {
			tool.DefaultLogger.Debugf("Unix socket response (raw): %s", string(buf[:n]))
		} else if errMsg, ok := response["error"].(string); ok && errMsg != "" {
			return fmt.Errorf("notifier returned error: %s", errMsg)
		}
	}
	return nil
}
