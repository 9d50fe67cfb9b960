package session

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/moyoez/detectview/tool"
	"github.com/moyoez/detectview/types"
)

// Selection is the file pending upload.
type Selection struct {
	Name       string
	MIME       string
	Data       []byte
	SelectedAt time.Time
}

// Preview describes the locally decoded selection.
type Preview struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// SelectionInfo is the selection without its bytes.
type SelectionInfo struct {
	Name       string    `json:"name"`
	MIME       string    `json:"mime"`
	Size       int64     `json:"size"`
	SelectedAt time.Time `json:"selectedAt"`
	Preview    *Preview  `json:"preview,omitempty"`
}

func (sel *Selection) info(p *Preview) SelectionInfo {
	info := SelectionInfo{
		Name:       sel.Name,
		MIME:       sel.MIME,
		Size:       int64(len(sel.Data)),
		SelectedAt: sel.SelectedAt,
	}
	if p != nil {
		cp := *p
		info.Preview = &cp
	}
	return info
}

// SelectFile validates data and stores it as the pending selection.
// The content must sniff as an image and be no larger than the upload limit;
// otherwise a ValidationError is returned and the prior selection is kept.
func (s *Session) SelectFile(name string, data []byte) error {
	if err := s.validate(data); err != nil {
		s.notify(types.NoticeError, types.UserMessage(err))
		return err
	}
	if name == "" {
		name = "image" + mimetype.Detect(data).Extension()
	}

	sel := &Selection{
		Name:       name,
		MIME:       mimetype.Detect(data).String(),
		Data:       data,
		SelectedAt: time.Now(),
	}

	s.mu.Lock()
	s.selGen++
	gen := s.selGen
	s.selection = sel
	s.preview = nil
	info := sel.info(nil)
	ls := s.listeners
	s.mu.Unlock()

	tool.DefaultLogger.Debugf("[Session] selected %s (%s, %d bytes)", sel.Name, sel.MIME, len(sel.Data))
	ls.SelectionChanged(&info)
	go s.renderPreview(gen, sel)
	return nil
}

// SelectPath reads a local file and selects it.
func (s *Session) SelectPath(path string) error {
	name, data, err := tool.ReadImageFile(path, s.opts.MaxUploadSize)
	if err != nil {
		s.notify(types.NoticeError, types.UserMessage(err))
		return err
	}
	return s.SelectFile(name, data)
}

func (s *Session) validate(data []byte) error {
	if len(data) == 0 {
		return types.NewError(types.ErrValidation, "", "Please choose a valid image file", nil)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return types.NewError(types.ErrValidation, "", "Please choose a valid image file",
			fmt.Errorf("detected content type %s", mt.String()))
	}
	if int64(len(data)) > s.opts.MaxUploadSize {
		return types.NewError(types.ErrValidation, "",
			fmt.Sprintf("File size must be %d MB or less", s.opts.MaxUploadSize/(1024*1024)), nil)
	}
	return nil
}

// renderPreview decodes the image header; failures only lose the preview.
func (s *Session) renderPreview(gen uint64, sel *Selection) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(sel.Data))
	if err != nil {
		tool.DefaultLogger.Debugf("[Session] no preview for %s: %v", sel.Name, err)
		return
	}
	p := Preview{Name: sel.Name, Format: format, Width: cfg.Width, Height: cfg.Height}

	s.mu.Lock()
	if s.selGen != gen {
		s.mu.Unlock()
		return
	}
	s.preview = &p
	ls := s.listeners
	s.mu.Unlock()

	ls.PreviewReady(p)
}

// ClearSelection discards the pending selection and its preview. Idempotent.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	if s.selection == nil && s.preview == nil {
		s.mu.Unlock()
		return
	}
	s.selection = nil
	s.preview = nil
	s.selGen++
	ls := s.listeners
	s.mu.Unlock()

	ls.SelectionChanged(nil)
}

// SelectedFile returns the pending selection's name, MIME type and bytes.
func (s *Session) SelectedFile() (string, string, []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return "", "", nil, false
	}
	return s.selection.Name, s.selection.MIME, s.selection.Data, true
}
