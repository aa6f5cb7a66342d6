package server

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"blastfield/calculator"
	"blastfield/hole"
	"blastfield/model"
	"blastfield/packer"
)

// 消息类型
const (
	TypeSimulate = "simulate" // content: []hole.Design
	TypeDisplay  = "display"  // content: DisplayRequest
	TypeLoad     = "load"     // content: batch id
	TypeStop     = "stop"

	TypeResult  = "result"
	TypeSources = "sources"
	TypeLoaded  = "loaded"
	TypeStopped = "stopped"
	TypeError   = "error"
)

// 计算结果存储，为空时不保存
type BatchStore interface {
	SaveBatch(buf *packer.Buffer, geometry []packer.Geometry) (string, error)
	LoadBatch(id string) (*packer.Buffer, []packer.Geometry, error)
}

type Failure struct {
	Row    int    `json:"row"`
	HoleID string `json:"hole_id"`
	Error  string `json:"error"`
}

type SimulateReply struct {
	BatchID  string            `json:"batch_id"`
	Buffer   *packer.Buffer    `json:"buffer"`
	Geometry []packer.Geometry `json:"geometry"`
	Failures []Failure         `json:"failures"`
}

type DisplayRequest struct {
	Time *float64 `json:"time"` // 为空时返回全部单元
}

type DisplayReply struct {
	BatchID string          `json:"batch_id"`
	Sources []packer.Source `json:"sources"`
}

// 每个连接一个 Hub：读协程接收请求，Run 按顺序处理并负责所有写操作
type Hub struct {
	conn  *websocket.Conn
	calc  calculator.Calculator
	store BatchStore

	msg chan model.Msg

	// 最近一次计算或加载的结果
	batchID  string
	buf      *packer.Buffer
	geometry []packer.Geometry
}

func NewHub(conn *websocket.Conn, calc calculator.Calculator, store BatchStore) *Hub {
	return &Hub{
		conn:  conn,
		calc:  calc,
		store: store,
		msg:   make(chan model.Msg, 10),
	}
}

// 连接断开时取消 ctx，正在进行的批量计算随之中止
func (h *Hub) readLoop(ctx context.Context, cancel context.CancelFunc) {
	defer close(h.msg)
	defer cancel()
	for {
		var msg model.Msg
		if err := h.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("read message")
			}
			return
		}
		select {
		case h.msg <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	go h.readLoop(ctx, cancel)
	defer func() {
		cancel()
		h.conn.Close()
		// 等待读协程退出
		for range h.msg {
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-h.msg:
			if !ok {
				return
			}
			reply, stop := h.handle(ctx, msg)
			if err := h.conn.WriteJSON(&reply); err != nil {
				log.WithError(err).Warn("write reply")
				return
			}
			if stop {
				return
			}
		}
	}
}

func (h *Hub) handle(ctx context.Context, msg model.Msg) (model.Msg, bool) {
	switch msg.Type {
	case TypeSimulate:
		var designs []hole.Design
		if err := json.Unmarshal([]byte(msg.Content), &designs); err != nil {
			return errorMsg(err), false
		}
		return encode(TypeResult, h.simulate(ctx, designs)), false
	case TypeDisplay:
		var req DisplayRequest
		if msg.Content != "" {
			if err := json.Unmarshal([]byte(msg.Content), &req); err != nil {
				return errorMsg(err), false
			}
		}
		if h.buf == nil {
			return model.Msg{Type: TypeError, Content: "no batch computed or loaded"}, false
		}
		return encode(TypeSources, DisplayReply{
			BatchID: h.batchID,
			Sources: packer.Sources(h.buf, h.geometry, req.Time),
		}), false
	case TypeLoad:
		if h.store == nil {
			return model.Msg{Type: TypeError, Content: "no store configured"}, false
		}
		buf, geometry, err := h.store.LoadBatch(msg.Content)
		if err != nil {
			return errorMsg(err), false
		}
		h.batchID, h.buf, h.geometry = msg.Content, buf, geometry
		return encode(TypeLoaded, SimulateReply{BatchID: h.batchID, Buffer: buf, Geometry: geometry}), false
	case TypeStop:
		return model.Msg{Type: TypeStopped, Content: "stopped"}, true
	default:
		log.WithField("type", msg.Type).Warn("no such type")
		return model.Msg{Type: TypeError, Content: "no such type: " + msg.Type}, false
	}
}

// 每个炮孔独立计算后打包，失败的炮孔输出空行
func (h *Hub) simulate(ctx context.Context, designs []hole.Design) SimulateReply {
	holes := make([]*hole.Hole, len(designs))
	jobs := make([]calculator.Job, len(designs))
	for i, d := range designs {
		holes[i] = hole.NewHole(d)
		jobs[i] = calculator.Job{Row: i, HoleID: d.ID, Column: holes[i].Column()}
	}
	results := h.calc.Batch(ctx, jobs)

	reply := SimulateReply{Geometry: make([]packer.Geometry, len(holes))}
	for i, r := range results {
		n := 0
		if r.Err != nil {
			reply.Failures = append(reply.Failures, Failure{Row: r.Row, HoleID: r.HoleID, Error: r.Err.Error()})
		} else {
			n = len(r.Result.Elements)
		}
		reply.Geometry[i] = holes[i].Geometry(n)
	}
	reply.Buffer = packer.Pack(packer.Rows(results), 0)

	if ctx.Err() != nil {
		// 客户端已断开，结果不保存
		return reply
	}
	if h.store != nil {
		id, err := h.store.SaveBatch(reply.Buffer, reply.Geometry)
		if err != nil {
			log.WithError(err).Error("保存计算结果失败")
		}
		reply.BatchID = id
	}
	h.batchID, h.buf, h.geometry = reply.BatchID, reply.Buffer, reply.Geometry
	return reply
}

func encode(typ string, v interface{}) model.Msg {
	data, err := json.Marshal(v)
	if err != nil {
		return errorMsg(err)
	}
	return model.Msg{Type: typ, Content: string(data)}
}

func errorMsg(err error) model.Msg {
	return model.Msg{Type: TypeError, Content: err.Error()}
}
