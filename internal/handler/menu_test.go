package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menupress/menupress/internal/model"
)

func newJSONContext(t *testing.T, body string) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/menu", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestParseMenuInputJSON(t *testing.T) {
	c := newJSONContext(t, `{
		"displayName": "Diner",
		"displayMode": "tabs",
		"sections": [{"title": "Starters", "items": [{"name": "Soup", "price": 4.5}]}],
		"socialLinks": [{"name": "instagram", "url": "https://example.com"}]
	}`)

	in, err := parseMenuInput(c)
	require.NoError(t, err)

	require.NotNil(t, in.DisplayName)
	assert.Equal(t, "Diner", *in.DisplayName)
	require.NotNil(t, in.DisplayMode)
	assert.Equal(t, "tabs", *in.DisplayMode)
	require.NotNil(t, in.Sections)
	require.Len(t, *in.Sections, 1)
	assert.Equal(t, "Soup", (*in.Sections)[0].Items[0].Name)
	require.NotNil(t, in.SocialLinks)

	// Absent fields stay nil so partial updates keep stored values.
	assert.Nil(t, in.BackgroundType)
	assert.Nil(t, in.TodaysSpecial)
	assert.Nil(t, in.Logo)
}

func TestParseMenuInputJSONEmptyBody(t *testing.T) {
	c := newJSONContext(t, `{}`)

	in, err := parseMenuInput(c)
	require.NoError(t, err)
	assert.Nil(t, in.DisplayName)
	assert.Nil(t, in.Sections)
}

func TestParseMenuInputMultipart(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("displayName", "Diner"))
	require.NoError(t, w.WriteField("backgroundType", model.BackgroundImage))
	require.NoError(t, w.WriteField("sections", `[{"title":"Mains","items":[]}]`))
	fw, err := w.CreateFormFile("logo", "logo.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/menu", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	c := echo.New().NewContext(req, httptest.NewRecorder())

	in, err := parseMenuInput(c)
	require.NoError(t, err)

	require.NotNil(t, in.DisplayName)
	assert.Equal(t, "Diner", *in.DisplayName)
	require.NotNil(t, in.BackgroundType)
	assert.Equal(t, model.BackgroundImage, *in.BackgroundType)
	require.NotNil(t, in.Sections)
	assert.Equal(t, "Mains", (*in.Sections)[0].Title)
	require.NotNil(t, in.Logo)
	assert.Equal(t, []byte("png-bytes"), in.Logo.Data)
	assert.Nil(t, in.BackgroundImage)
}

func TestParseMenuInputMultipartBadSections(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("sections", "not-json"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/menu", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	c := echo.New().NewContext(req, httptest.NewRecorder())

	_, err := parseMenuInput(c)
	assert.Error(t, err)
}

func TestDataURI(t *testing.T) {
	_, ok := dataURI(nil)
	assert.False(t, ok)

	uri, ok := dataURI(&model.ImageBlob{Data: []byte("img"), ContentType: "image/png"})
	require.True(t, ok)
	assert.Equal(t, "data:image/png;base64,aW1n", uri)
}
