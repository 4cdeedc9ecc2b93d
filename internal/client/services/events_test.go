package services

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophevents/internal/client/models"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

type uploadCall struct {
	url, contentType string
	data             []byte
}

func stubFileIO(t *testing.T, data []byte, readErr, uploadErr error) *uploadCall {
	t.Helper()
	origRead, origUpload := readFile, upload
	t.Cleanup(func() { readFile, upload = origRead, origUpload })

	call := &uploadCall{}
	readFile = func(string) ([]byte, error) { return data, readErr }
	upload = func(_ context.Context, url, contentType string, d []byte) error {
		call.url, call.contentType, call.data = url, contentType, d
		return uploadErr
	}
	return call
}

func TestEventService_PassThrough(t *testing.T) {
	ev := &models.Event{ID: "e1", Title: "Go meetup"}
	fc := &fakeClient{event: ev, events: []*models.Event{ev}}
	svc := NewEventService(fc)
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.Upcoming(ctx)
	require.NoError(t, err)
	_, err = svc.Past(ctx)
	require.NoError(t, err)

	_, err = svc.Search(ctx, models.SearchQuery{Text: "go"})
	require.NoError(t, err)
	assert.Equal(t, "go", fc.lastSearch.Text)

	got, err := svc.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, ev, got)

	_, err = svc.Statistics(ctx, "e2")
	require.NoError(t, err)
	assert.Equal(t, "e2", fc.lastEventID)

	p, err := svc.Participants(ctx, "e3")
	require.NoError(t, err)
	assert.Equal(t, "e3", p.EventID)

	title := "New"
	_, err = svc.Create(ctx, models.EventInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "New", *fc.lastInput.Title)

	_, err = svc.Update(ctx, "e4", models.EventInput{})
	require.NoError(t, err)
	assert.Equal(t, "e4", fc.lastEventID)

	require.NoError(t, svc.Delete(ctx, "e5"))
	assert.Equal(t, "e5", fc.lastEventID)

	_, err = svc.Join(ctx, "e6")
	require.NoError(t, err)
	assert.Equal(t, "e6", fc.lastEventID)

	_, err = svc.Leave(ctx, "e7")
	require.NoError(t, err)
	assert.Equal(t, "e7", fc.lastEventID)
}

func TestUploadImage_PresignsAndPuts(t *testing.T) {
	call := stubFileIO(t, pngHeader, nil, nil)
	fc := &fakeClient{upload: &models.ImageUpload{UploadURL: "http://s3/put?sig=1", ImageURL: "http://s3/bucket/k"}}

	url, err := NewEventService(fc).UploadImage(context.Background(), "e1", "poster.PNG")
	require.NoError(t, err)
	assert.Equal(t, "http://s3/bucket/k", url)

	assert.Equal(t, "e1", fc.lastEventID)
	assert.Equal(t, "image/png", fc.lastContentType)
	assert.Equal(t, "http://s3/put?sig=1", call.url)
	assert.Equal(t, "image/png", call.contentType)
	assert.Equal(t, pngHeader, call.data)
}

func TestUploadImage_SniffsWithoutExtension(t *testing.T) {
	stubFileIO(t, pngHeader, nil, nil)
	fc := &fakeClient{upload: &models.ImageUpload{UploadURL: "u", ImageURL: "i"}}

	_, err := NewEventService(fc).UploadImage(context.Background(), "e1", "poster")
	require.NoError(t, err)
	assert.Equal(t, "image/png", fc.lastContentType)
}

func TestUploadImage_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		stubFileIO(t, nil, os.ErrNotExist, nil)
		_, err := NewEventService(&fakeClient{}).UploadImage(ctx, "e1", "nope.png")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("not an image", func(t *testing.T) {
		stubFileIO(t, []byte("plain text"), nil, nil)
		fc := &fakeClient{}
		_, err := NewEventService(fc).UploadImage(ctx, "e1", "notes.txt")
		assert.ErrorContains(t, err, "does not look like an image")
		assert.Empty(t, fc.lastEventID, "must not presign")
	})

	t.Run("too large", func(t *testing.T) {
		stubFileIO(t, make([]byte, maxImageSize+1), nil, nil)
		_, err := NewEventService(&fakeClient{}).UploadImage(ctx, "e1", "big.png")
		assert.ErrorContains(t, err, "larger than")
	})

	t.Run("presign refused", func(t *testing.T) {
		stubFileIO(t, pngHeader, nil, nil)
		boom := errors.New("403: Access denied")
		_, err := NewEventService(&fakeClient{err: boom}).UploadImage(ctx, "e1", "p.png")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("upload failed", func(t *testing.T) {
		boom := errors.New("upload failed: 403")
		stubFileIO(t, pngHeader, nil, boom)
		fc := &fakeClient{upload: &models.ImageUpload{UploadURL: "u"}}
		_, err := NewEventService(fc).UploadImage(ctx, "e1", "p.png")
		assert.ErrorIs(t, err, boom)
	})
}
