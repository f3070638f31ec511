// Package realtime emite eventos de sincronización a los terminales conectados
// por WebSocket. Cada cliente se suscribe a los eventos de su establecimiento;
// el broadcast nunca bloquea a quien publica.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	syncapp "github.com/tu-usuario/pdv-pro/internal/application/sync"
	"github.com/tu-usuario/pdv-pro/internal/domain/entity"
	"github.com/tu-usuario/pdv-pro/pkg/jwt"
	"github.com/tu-usuario/pdv-pro/pkg/logger"
)

// Tipos de evento emitidos a los terminales.
const (
	EventProductUpdated = "product_updated"
	EventNewSale        = "new_sale"
	EventSyncStatus     = "sync_status"
)

// Event mensaje emitido por el hub.
type Event struct {
	Type            string    `json:"type"`
	EstablishmentID string    `json:"establishmentId"`
	Payload         any       `json:"payload,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

var _ syncapp.Notifier = (*Hub)(nil)

type client struct {
	conn            *websocket.Conn
	establishmentID string
}

// Hub servidor WebSocket con suscripción por establecimiento.
type Hub struct {
	addr      string
	jwtSecret string
	listener  net.Listener
	server    *http.Server

	clients   map[*client]bool
	clientsMu sync.RWMutex

	broadcast chan Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	log *logger.Logger
}

// NewHub construye el hub. addr es la dirección de escucha (ej. ":8081").
func NewHub(addr, jwtSecret string, log *logger.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		addr:      addr,
		jwtSecret: jwtSecret,
		clients:   make(map[*client]bool),
		broadcast: make(chan Event, 100),
		ctx:       ctx,
		cancel:    cancel,
		log:       log.Component("realtime"),
	}
}

// Start abre el listener y arranca el loop de broadcast.
func (h *Hub) Start() error {
	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", h.addr, err)
	}
	h.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)

	h.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	h.wg.Add(1)
	go h.broadcastLoop()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.log.Info().Str("addr", h.addr).Msg("hub WebSocket escuchando")
		if err := h.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			h.log.Error().Err(err).Msg("error del servidor WebSocket")
		}
	}()

	return nil
}

// Stop cierra las conexiones y apaga el servidor.
func (h *Hub) Stop() error {
	h.cancel()

	h.clientsMu.Lock()
	for c := range h.clients {
		_ = c.conn.Close(websocket.StatusGoingAway, "servidor apagándose")
		delete(h.clients, c)
	}
	h.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown hub: %w", err)
	}
	h.wg.Wait()
	return nil
}

// NotifyProductUpdated emite la versión vigente de un producto a los terminales del establecimiento.
func (h *Hub) NotifyProductUpdated(establishmentID string, product *entity.Product) {
	h.publish(Event{
		Type:            EventProductUpdated,
		EstablishmentID: establishmentID,
		Payload: map[string]any{
			"id":         product.ID,
			"codigo":     product.Codigo,
			"nome":       product.Nome,
			"precoVenda": product.PrecoVenda,
			"estoque":    product.Estoque,
			"updatedAt":  product.UpdatedAt,
		},
	})
}

// NotifyNewSale emite el registro de una venta nueva.
func (h *Hub) NotifyNewSale(establishmentID string, sale *entity.Sale) {
	h.publish(Event{
		Type:            EventNewSale,
		EstablishmentID: establishmentID,
		Payload: map[string]any{
			"id":     sale.ID,
			"numero": sale.Numero,
			"total":  sale.Total,
			"data":   sale.Data,
		},
	})
}

// NotifySyncStatus emite el estado de una sincronización en curso.
func (h *Hub) NotifySyncStatus(establishmentID, status, message string) {
	h.publish(Event{
		Type:            EventSyncStatus,
		EstablishmentID: establishmentID,
		Payload: map[string]any{
			"status":  status,
			"message": message,
		},
	})
}

// publish encola el evento sin bloquear; si el canal está lleno se descarta.
func (h *Hub) publish(ev Event) {
	ev.Timestamp = time.Now()
	select {
	case h.broadcast <- ev:
	case <-h.ctx.Done():
	default:
		h.log.Warn().Str("type", ev.Type).Msg("canal de broadcast lleno, evento descartado")
	}
}

func (h *Hub) broadcastLoop() {
	defer h.wg.Done()

	for {
		select {
		case <-h.ctx.Done():
			return

		case ev := <-h.broadcast:
			data, err := json.Marshal(ev)
			if err != nil {
				h.log.Error().Err(err).Msg("no se pudo serializar el evento")
				continue
			}

			h.clientsMu.RLock()
			targets := make([]*client, 0, len(h.clients))
			for c := range h.clients {
				if c.establishmentID == ev.EstablishmentID {
					targets = append(targets, c)
				}
			}
			h.clientsMu.RUnlock()

			// Escribir fuera del lock para no frenar otros broadcasts
			for _, c := range targets {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				err := c.conn.Write(ctx, websocket.MessageText, data)
				cancel()
				if err != nil {
					h.removeClient(c)
				}
			}
		}
	}
}

// handleWebSocket autentica el token (query param) y suscribe la conexión al
// establecimiento del usuario.
func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	_, establishmentID, _, err := jwt.Parse(h.jwtSecret, token)
	if err != nil {
		http.Error(w, "token inválido", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("upgrade WebSocket fallido")
		return
	}

	c := &client{conn: conn, establishmentID: establishmentID}
	h.clientsMu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.clientsMu.Unlock()

	h.log.Info().Str("establishment_id", establishmentID).Int("total", total).Msg("terminal conectado")

	go h.readLoop(c)
}

// readLoop mantiene viva la conexión y detecta desconexiones; no se procesan
// mensajes del cliente.
func (h *Hub) readLoop(c *client) {
	defer h.removeClient(c)
	for {
		_, _, err := c.conn.Read(h.ctx)
		if err != nil {
			return
		}
	}
}

func (h *Hub) removeClient(c *client) {
	h.clientsMu.Lock()
	if _, exists := h.clients[c]; exists {
		delete(h.clients, c)
		total := len(h.clients)
		h.clientsMu.Unlock()
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
		h.log.Info().Int("total", total).Msg("terminal desconectado")
		return
	}
	h.clientsMu.Unlock()
}
