package server

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/goliatone/go-press/pkg/interfaces"
)

const reloadMessage = "reload"

const writeTimeout = 2 * time.Second

// reloadScript is appended to served HTML pages when livereload is enabled.
// The client reconnects with a short backoff so a server restart does not
// strand open tabs.
const reloadScript = `<script>
(function () {
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var socket = new WebSocket(proto + location.host + "` + ReloadPath + `");
    socket.onmessage = function (msg) {
      if (msg.data === "` + reloadMessage + `") {
        location.reload();
      }
    };
    socket.onclose = function () {
      setTimeout(connect, 1000);
    };
  }
  connect();
})();
</script>`

// reloadHub tracks websocket subscribers and fans rebuild notifications out
// to every connected browser.
type reloadHub struct {
	logger interfaces.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newReloadHub(logger interfaces.Logger) *reloadHub {
	return &reloadHub{
		logger: logger,
		conns:  map[*websocket.Conn]struct{}{},
	}
}

func (h *reloadHub) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Debug("reload subscriber rejected", "error", err)
		return
	}

	h.add(conn)
	defer h.remove(conn)

	// Browsers never send application data; the read loop only notices the
	// peer going away.
	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

func (h *reloadHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	count := len(h.conns)
	h.mu.Unlock()
	h.logger.Debug("reload subscriber connected", "subscribers", count)
}

func (h *reloadHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *reloadHub) broadcast(message string) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	if len(conns) == 0 {
		return
	}
	h.logger.Debug("broadcasting reload", "subscribers", len(conns))

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := conn.Write(ctx, websocket.MessageText, []byte(message)); err != nil {
			h.logger.Debug("reload write failed", "error", err)
			h.remove(conn)
		}
		cancel()
	}
}

func (h *reloadHub) closeAll() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.conns = map[*websocket.Conn]struct{}{}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

// injectReloadScript places the livereload client before </body> when
// present, otherwise appends it.
func injectReloadScript(page []byte) []byte {
	marker := []byte("</body>")
	if idx := bytes.LastIndex(page, marker); idx >= 0 {
		out := make([]byte, 0, len(page)+len(reloadScript))
		out = append(out, page[:idx]...)
		out = append(out, []byte(reloadScript)...)
		out = append(out, page[idx:]...)
		return out
	}
	return append(append([]byte{}, page...), []byte(reloadScript)...)
}
