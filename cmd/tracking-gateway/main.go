// cmd/tracking-gateway/main.go
//
// tracking-gateway 把订单状态流转事件实时推送给浏览器端。
// 客户端通过 /ws?user_id=xxx 建立 WebSocket 连接，
// 网关消费 Kafka 上的状态事件并按 UserID 定向下发。
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"primeshop/internal/pkg/config"
	"primeshop/internal/pkg/logger"
	"primeshop/internal/pkg/mq"
	"primeshop/internal/service/order/domain"
)

const (
	serviceName    = "tracking-gateway"
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool { // 简化处理，允许所有跨域
		return true
	},
}

// Hub 维护所有活跃的连接，按 UserID 索引。
type Hub struct {
	clients    map[int64]*Client
	register   chan *Client
	unregister chan *Client
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[int64]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// run 串行处理注册、注销与推送，clients map 只在这个 goroutine 中访问。
func (h *Hub) run(ctx context.Context, events <-chan *domain.OrderStatusChanged) error {
	for {
		select {
		case <-ctx.Done():
			for _, client := range h.clients {
				close(client.send)
			}
			return ctx.Err()
		case client := <-h.register:
			if old, ok := h.clients[client.userID]; ok {
				close(old.send)
			}
			h.clients[client.userID] = client
			logger.Ctx(ctx).Info().Int64("user_id", client.userID).Msg("client registered")
		case client := <-h.unregister:
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
			}
		case event := <-events:
			client, ok := h.clients[event.UserID]
			if !ok {
				continue // 用户不在本节点，丢弃即可：事件已持久化在订单表
			}
			payload, err := json.Marshal(event)
			if err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("marshal event for push")
				continue
			}
			select {
			case client.send <- payload:
			default:
				// 写缓冲已满，视为死连接
				delete(h.clients, client.userID)
				close(client.send)
			}
		}
	}
}

// Client 是一个 WebSocket 连接的代表。
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int64
}

// writePump 把 send channel 中的消息写入连接，并周期性发送 ping。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 消费客户端消息（只处理心跳），连接断开时注销。
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func serveWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), userID: userID}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// consume 从 Kafka 读取状态事件并投递给 Hub。
func consume(ctx context.Context, cfg *config.Config, groupID string, events chan<- *domain.OrderStatusChanged) error {
	reader := mq.NewReader(cfg.Kafka.Brokers, cfg.Kafka.OrderStatusTopic, groupID)
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Ctx(ctx).Error().Err(err).Msg("read status event")
			continue
		}

		msgCtx := mq.ExtractContext(ctx, &msg)
		var event domain.OrderStatusChanged
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Ctx(msgCtx).Error().Err(err).Msg("malformed status event, skipping")
			continue
		}

		logger.Ctx(msgCtx).Debug().
			Int64("order_id", event.OrderID).
			Str("from", event.From).
			Str("to", event.To).
			Msg("status event received")

		select {
		case events <- &event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	port := flag.Int("port", 8088, "http listen port")
	flag.Parse()

	logger.Init(serviceName)
	log := logger.Ctx(context.Background())

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	nodeID := serviceName + "-" + uuid.New().String()[:8]
	hub := newHub()
	events := make(chan *domain.OrderStatusChanged, 64)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r)
	})
	server := &http.Server{Addr: ":" + strconv.Itoa(*port), Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.run(ctx, events) })
	// 每个网关节点独立消费组，所有节点都能看到全量事件
	g.Go(func() error { return consume(ctx, cfg, nodeID, events) })
	g.Go(func() error {
		log.Info().Str("node_id", nodeID).Int("port", *port).Msg("tracking gateway listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("tracking gateway stopped")
	}
	log.Info().Msg("tracking gateway shut down")
}
