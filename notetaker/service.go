package notetaker

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gorilla/websocket"
	"github.com/lucsky/cuid"
	"github.com/progrium/media-notes/player/local"
	"github.com/progrium/media-notes/player/remote"
	"github.com/progrium/media-notes/playback"
	"github.com/progrium/media-notes/session"
	"github.com/progrium/media-notes/store"
	"github.com/progrium/media-notes/timeline"
	"github.com/rs/xid"
)

//go:embed ui
var ui embed.FS

const pushInterval = 250 * time.Millisecond

// Service serves the note taker UI, the embedded player page and the
// websockets behind them.
type Service struct {
	Addr  string
	Taker *Taker
	Store store.Store
	// Output plays local media. The default audio device is used when nil.
	Output local.Output
	Rate   beep.SampleRate
	Poll   time.Duration

	mu      sync.Mutex
	ctx     context.Context
	remote  *remote.Player
	handler playback.Handler
	page    *remote.Conn
}

// Command is a UI request sent over the client websocket.
type Command struct {
	Call     string          `json:"call"`
	Path     string          `json:"path,omitempty"`
	URL      string          `json:"url,omitempty"`
	Name     string          `json:"name,omitempty"`
	Handle   timeline.Handle `json:"handle,omitempty"`
	Category string          `json:"category,omitempty"`
	Topic    string          `json:"topic,omitempty"`
	Body     string          `json:"body,omitempty"`
	Moment   bool            `json:"moment,omitempty"`
	Time     float64         `json:"time,omitempty"`
	Volume   float64         `json:"volume,omitempty"`
	Extent   float64         `json:"extent,omitempty"`
}

type Reply struct {
	Call   string           `json:"call"`
	Error  string           `json:"error,omitempty"`
	Handle timeline.Handle  `json:"handle,omitempty"`
	Record *timeline.Record `json:"record,omitempty"`
	Name   string           `json:"name,omitempty"`
	Names  []string         `json:"names,omitempty"`
	Text   string           `json:"text,omitempty"`
}

type View struct {
	State State `json:"state"`
}

func (s *Service) Serve(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	srv := &http.Server{Addr: s.Addr, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	log.Printf("running on http://localhost%s ...", s.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func (s *Service) Handler() http.Handler {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Print("upgrade:", err)
			return
		}
		s.handleClient(r.Context(), conn)
	})

	mux.HandleFunc("/player/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Print("upgrade:", err)
			return
		}
		s.handlePage(remote.NewConn(conn))
	})

	mux.HandleFunc("/player", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(remote.Page)
	})

	dir, err := fs.Sub(ui, "ui")
	if err != nil {
		panic(err)
	}
	mux.Handle("/ui/", http.StripPrefix("/ui", http.FileServer(http.FS(dir))))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		f, err := dir.Open("index.html")
		if err != nil {
			log.Println(err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer f.Close()
		http.ServeContent(w, r, "index.html", time.Now(), fileSeeker{f})
	})
	return mux
}

type client struct {
	id   string
	ws   *websocket.Conn
	wsMu sync.Mutex
}

func (c *client) send(v any) error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	return c.ws.WriteJSON(v)
}

func (s *Service) handleClient(ctx context.Context, conn *websocket.Conn) {
	c := &client{id: cuid.New(), ws: conn}
	defer conn.Close()
	log.Printf("notetaker: client %s connected", c.id)

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(pushInterval):
			}
			if err := c.send(View{State: s.Taker.State()}); err != nil {
				return
			}
		}
	}()

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			log.Printf("notetaker: client %s: %v", c.id, err)
			return
		}
		if err := c.send(s.Do(ctx, cmd)); err != nil {
			log.Printf("notetaker: client %s: %v", c.id, err)
			return
		}
	}
}

func (s *Service) handlePage(conn *remote.Conn) {
	s.mu.Lock()
	if s.page != nil {
		s.page.Close()
	}
	s.page = conn
	rp := s.remote
	s.mu.Unlock()

	if rp != nil {
		if err := rp.Attach(conn); err != nil {
			log.Println("notetaker: attach:", err)
		}
	}
	err := conn.Reports(func(r remote.Report) {
		s.mu.Lock()
		rp, h := s.remote, s.handler
		s.mu.Unlock()
		if rp == nil {
			return
		}
		if ev, ok := rp.Handle(r); ok {
			h(ev)
		}
	})
	log.Println("notetaker: player page:", err)

	s.mu.Lock()
	if s.page == conn {
		s.page = nil
	}
	s.mu.Unlock()
}

// Do runs one UI command.
func (s *Service) Do(ctx context.Context, cmd Command) Reply {
	reply := Reply{Call: cmd.Call}
	var err error
	switch cmd.Call {
	case "open-local":
		err = s.OpenLocal(cmd.Path, nil)
	case "open-url":
		err = s.OpenURL(cmd.URL, nil)
	case "continue":
		err = s.Continue(ctx, cmd.Name)
	case "list":
		reply.Names, err = s.Store.List(ctx)
	case "save":
		reply.Name, err = s.Save(ctx, cmd.Name)
	case "extract":
		reply.Text, err = s.Taker.Extract()
	case "begin":
		reply.Handle, err = s.Taker.BeginDraft()
	case "commit":
		reply.Handle = cmd.Handle
		err = s.Taker.CommitDraft(cmd.Handle, timeline.Fields{
			Category: timeline.Category(cmd.Category),
			Topic:    cmd.Topic,
			Body:     cmd.Body,
			Moment:   cmd.Moment,
		})
	case "discard":
		err = s.Taker.DiscardDraft(cmd.Handle)
	case "open-marker":
		var r timeline.Record
		r, err = s.Taker.OpenMarker(cmd.Handle)
		if err == nil {
			reply.Handle = cmd.Handle
			reply.Record = &r
		}
	case "toggle":
		err = s.Taker.Toggle()
	case "ff":
		err = s.Taker.FastForward()
	case "rewind":
		err = s.Taker.Rewind()
	case "scrub-press":
		err = s.Taker.ScrubPress()
	case "scrub-release":
		err = s.Taker.ScrubRelease(timeline.Seconds(cmd.Time))
	case "volume":
		err = s.Taker.SetVolume(cmd.Volume)
	case "reflow":
		s.Taker.Reflow(cmd.Extent)
	default:
		err = fmt.Errorf("unknown call %q", cmd.Call)
	}
	if err != nil {
		reply.Error = err.Error()
	}
	return reply
}

func (s *Service) output() (local.Output, beep.SampleRate, error) {
	if s.Output != nil {
		return s.Output, s.Rate, nil
	}
	rate := s.Rate
	if rate == 0 {
		rate = beep.SampleRate(44100)
	}
	return local.Speaker(rate)
}

// OpenLocal plays the audio file at path. prior is a saved session to
// continue, or nil.
func (s *Service) OpenLocal(path string, prior *session.Session) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	out, rate, err := s.output()
	if err != nil {
		return err
	}
	p, err := local.Open(abs, out, rate)
	if err != nil {
		return err
	}
	media := session.Media{
		Local:     true,
		AudioOnly: local.AudioOnly(abs),
		Source:    (&url.URL{Scheme: "file", Path: abs}).String(),
		Name:      filepath.Base(abs),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithCancel(s.ctxLocked())
	h := s.Taker.Open(Backend{
		Media:  media,
		Player: p,
		Close: func() {
			cancel()
			if err := p.Close(); err != nil {
				log.Println("notetaker: close:", err)
			}
		},
	}, prior)
	s.remote, s.handler = nil, nil

	poll := s.Poll
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	go p.Watch(ctx, poll, h)
	return nil
}

func (s *Service) ctxLocked() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// OpenURL plays a video link in the embedded player page.
func (s *Service) OpenURL(link string, prior *session.Session) error {
	id, err := remote.VideoID(link)
	if err != nil {
		return err
	}
	return s.openRemote(session.Media{Source: id, Name: link}, prior)
}

func (s *Service) openRemote(media session.Media, prior *session.Session) error {
	rp := remote.New(media.Source)

	s.mu.Lock()
	h := s.Taker.Open(Backend{
		Media:  media,
		Player: rp,
		Offset: remote.Offset,
	}, prior)
	s.remote, s.handler = rp, h
	page := s.page
	s.mu.Unlock()

	if page == nil {
		return nil
	}
	return rp.Attach(page)
}

// Continue reopens the media of a saved session and replays its notes.
func (s *Service) Continue(ctx context.Context, name string) error {
	data, err := s.Store.Load(ctx, name)
	if err != nil {
		return err
	}
	sess, err := s.Taker.Load(data)
	if err != nil {
		return err
	}
	if !sess.Local {
		return s.openRemote(sess.Media, sess)
	}
	u, err := url.Parse(sess.Source)
	if err != nil {
		return &session.CorruptSessionError{Err: err}
	}
	return s.OpenLocal(u.Path, sess)
}

// Save stores the committed notes under name, or a fresh name when name is
// empty, and returns the name used.
func (s *Service) Save(ctx context.Context, name string) (string, error) {
	data, err := s.Taker.Save()
	if err != nil {
		return "", err
	}
	if name == "" {
		name = xid.New().String()
	}
	if err := s.Store.Save(ctx, name, data); err != nil {
		return "", err
	}
	return name, nil
}

type fileSeeker struct {
	fs.File
}

func (fsk fileSeeker) Seek(offset int64, whence int) (int64, error) {
	if seeker, ok := fsk.File.(io.Seeker); ok {
		return seeker.Seek(offset, whence)
	}
	return 0, io.ErrUnexpectedEOF
}
