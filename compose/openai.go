package compose

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/textproto"
	"strings"

	nhttp "github.com/chaos-io/maskcanvas/util/http"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-image-1"
	DefaultSize    = "1024x1024"
	DefaultQuality = "high"

	editsPath = "/images/edits"
)

const furniturePrompt = `Return the photo of the room (first image) with the piece of furniture ` +
	`(second image) placed inside the transparent area of the mask. ` +
	`Keep the rest of the room unchanged and match its lighting and perspective.`

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Size    string
	Quality string
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Size == "" {
		c.Size = DefaultSize
	}
	if c.Quality == "" {
		c.Quality = DefaultQuality
	}
	return c
}

// OpenAIComposer 通过 images/edits 接口合成图片
type OpenAIComposer struct {
	cfg Config
	cli nhttp.IClient
}

var _ Composer = (*OpenAIComposer)(nil)

func NewOpenAIComposer(cfg Config, cli nhttp.IClient) *OpenAIComposer {
	if cli == nil {
		cli = nhttp.NewHTTPClient()
	}
	return &OpenAIComposer{
		cfg: cfg.withDefaults(),
		cli: cli,
	}
}

type editResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
}

/*
	curl -X POST "$BASE_URL/images/edits" \
	  -H "Authorization: Bearer $OPENAI_API_KEY" \
	  -F "model=gpt-image-1" \
	  -F "image[]=@room.png" \
	  -F "image[]=@furniture.png" \
	  -F "mask=@mask.png" \
	  -F "prompt=..."
*/
func (o *OpenAIComposer) Furniture(ctx context.Context, req *FurnitureRequest) (*Result, error) {
	if req == nil || req.Room.empty() || req.Furniture.empty() || req.Mask.empty() {
		return nil, ErrMissingFields
	}

	form := newEditForm(o.cfg, furniturePrompt)
	form.file("image[]", req.Room, "room.png")
	form.file("image[]", req.Furniture, "furniture.png")
	form.file("mask", req.Mask, "mask.png")

	return o.edit(ctx, "furniture", form)
}

func (o *OpenAIComposer) Outfit(ctx context.Context, req *OutfitRequest) (*Result, error) {
	if req == nil || len(req.Users) == 0 || req.Clothing.empty() || strings.TrimSpace(req.ClothingItem) == "" {
		return nil, ErrMissingFields
	}
	for _, u := range req.Users {
		if u.empty() {
			return nil, ErrMissingFields
		}
	}

	// 参考照在前，衣服图放在最后
	form := newEditForm(o.cfg, outfitPrompt(req.ClothingItem, req.AdditionalInstructions))
	for i, u := range req.Users {
		form.file("image[]", u, fmt.Sprintf("user%d.png", i))
	}
	form.file("image[]", req.Clothing, "clothing.png")

	return o.edit(ctx, "outfit", form)
}

func outfitPrompt(item, instructions string) string {
	prompt := fmt.Sprintf("Generate an image of the person in the reference photos wearing %s, "+
		"keeping their facial features, skin tone and body shape. "+
		"The last image shows the garment; match its exact style, fit and details. "+
		"Use studio lighting and a plain white background.", item)
	if s := strings.TrimSpace(instructions); s != "" {
		prompt += " " + s
	}
	return prompt
}

func (o *OpenAIComposer) edit(ctx context.Context, kind string, form *editForm) (*Result, error) {
	body, contentType, err := form.close()
	if err != nil {
		return nil, fmt.Errorf("build %s form: %w", kind, err)
	}

	header := map[string]string{"Content-Type": contentType}
	if o.cfg.APIKey != "" {
		header["Authorization"] = "Bearer " + o.cfg.APIKey
	}

	resp := &editResponse{}
	reqParam := &nhttp.RequestParam{
		RequestURI: o.cfg.BaseURL + editsPath,
		Method:     "POST",
		Header:     header,
		Body:       body,
		Response:   resp,
	}
	if err := o.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("%s edit: %w", kind, err)
	}

	if len(resp.Data) == 0 || (resp.Data[0].B64JSON == "" && resp.Data[0].URL == "") {
		return nil, ErrNoImage
	}

	slog.Debug("image edit done", "kind", kind, "has_b64", resp.Data[0].B64JSON != "")
	return &Result{ImageData: resp.Data[0].B64JSON, ImageURL: resp.Data[0].URL}, nil
}

// editForm 组装 multipart 表单，第一次出错后后续写入都跳过
type editForm struct {
	body   *bytes.Buffer
	writer *multipart.Writer
	err    error
}

func newEditForm(cfg Config, prompt string) *editForm {
	body := &bytes.Buffer{}
	f := &editForm{body: body, writer: multipart.NewWriter(body)}
	f.field("model", cfg.Model)
	f.field("prompt", prompt)
	f.field("size", cfg.Size)
	f.field("quality", cfg.Quality)
	return f
}

func (f *editForm) field(name, value string) {
	if f.err != nil {
		return
	}
	f.err = f.writer.WriteField(name, value)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (f *editForm) file(name string, img Image, fallbackName string) {
	if f.err != nil {
		return
	}
	filename := img.Filename
	if filename == "" {
		filename = fallbackName
	}
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(name), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", mimeType)

	part, err := f.writer.CreatePart(h)
	if err != nil {
		f.err = err
		return
	}
	_, f.err = part.Write(img.Data)
}

func (f *editForm) close() (*bytes.Buffer, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if err := f.writer.Close(); err != nil {
		return nil, "", err
	}
	return f.body, f.writer.FormDataContentType(), nil
}
