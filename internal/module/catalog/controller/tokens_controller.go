package controller

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/memelore/meme-token-catalog/internal/database/schema"
	"github.com/memelore/meme-token-catalog/internal/module/catalog/service"
	"github.com/valyala/fasthttp"
)

type TokensController interface {
	CreateToken(ctx *fasthttp.RequestCtx)
	UpdateToken(ctx *fasthttp.RequestCtx)
	DeleteToken(ctx *fasthttp.RequestCtx)
	PublishToken(ctx *fasthttp.RequestCtx)
	GetTokenBySlug(ctx *fasthttp.RequestCtx)
	ListPublishedTokens(ctx *fasthttp.RequestCtx)
	ListAllTokens(ctx *fasthttp.RequestCtx)
	CheckhHealthz(ctx *fasthttp.RequestCtx)
}

type tokensController struct {
	tokensService service.TokensService
}

func NewTokensController(tokensService service.TokensService) TokensController {
	return &tokensController{
		tokensService: tokensService,
	}
}

func (c *tokensController) respond(ctx *fasthttp.RequestCtx, code int, data interface{}, message string) {
	response := map[string]interface{}{
		"code":    code,
		"data":    data,
		"message": message,
	}

	responseBody, err := json.Marshal(response)
	if err != nil {
		ctx.Error("Failed to serialize response ", fasthttp.StatusInternalServerError)
		return
	}

	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetBody(responseBody)
	ctx.Response.SetStatusCode(fasthttp.StatusOK)
}

func (c *tokensController) CreateToken(ctx *fasthttp.RequestCtx) {
	var token schema.Token
	if err := json.Unmarshal(ctx.PostBody(), &token); err != nil {
		c.respond(ctx, 400, nil, "Failed to parse request body")
		return
	}

	if err := c.tokensService.CreateToken(&token); err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			c.respond(ctx, 400, nil, "Missing required fields")
		case errors.Is(err, service.ErrSlugTaken):
			c.respond(ctx, 400, nil, "Token with this slug already exists")
		default:
			c.respond(ctx, 500, nil, "Failed to create token")
		}
		return
	}

	c.respond(ctx, 201, token, "Token created successfully")
}

func (c *tokensController) UpdateToken(ctx *fasthttp.RequestCtx) {
	id, err := strconv.ParseUint(ctx.UserValue("id").(string), 10, 64)
	if err != nil {
		c.respond(ctx, 400, nil, "Invalid token id")
		return
	}

	var token schema.Token
	if err := json.Unmarshal(ctx.PostBody(), &token); err != nil {
		c.respond(ctx, 400, nil, "Failed to parse request body")
		return
	}

	updated, err := c.tokensService.UpdateToken(id, &token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenMissing):
			c.respond(ctx, 404, nil, "Token not found")
		case errors.Is(err, service.ErrSlugTaken):
			c.respond(ctx, 400, nil, "Token with this slug already exists")
		default:
			c.respond(ctx, 500, nil, "Failed to update token")
		}
		return
	}

	c.respond(ctx, 200, updated, "Token updated successfully")
}

func (c *tokensController) DeleteToken(ctx *fasthttp.RequestCtx) {
	id, err := strconv.ParseUint(ctx.UserValue("id").(string), 10, 64)
	if err != nil {
		c.respond(ctx, 400, nil, "Invalid token id")
		return
	}

	if err := c.tokensService.DeleteToken(id); err != nil {
		c.respond(ctx, 500, nil, "Failed to delete token")
		return
	}

	c.respond(ctx, 200, nil, "Token deleted successfully")
}

func (c *tokensController) PublishToken(ctx *fasthttp.RequestCtx) {
	id, err := strconv.ParseUint(ctx.UserValue("id").(string), 10, 64)
	if err != nil {
		c.respond(ctx, 400, nil, "Invalid token id")
		return
	}

	var body struct {
		Published bool `json:"published"`
	}
	body.Published = true
	if len(ctx.PostBody()) > 0 {
		if err := json.Unmarshal(ctx.PostBody(), &body); err != nil {
			c.respond(ctx, 400, nil, "Failed to parse request body")
			return
		}
	}

	token, err := c.tokensService.PublishToken(id, body.Published)
	if err != nil {
		if errors.Is(err, service.ErrTokenMissing) {
			c.respond(ctx, 404, nil, "Token not found")
			return
		}
		c.respond(ctx, 500, nil, "Failed to publish token")
		return
	}

	c.respond(ctx, 200, token, "Token publication updated")
}

func (c *tokensController) GetTokenBySlug(ctx *fasthttp.RequestCtx) {
	slug := ctx.UserValue("slug").(string)

	token, err := c.tokensService.GetTokenBySlug(slug)
	if err != nil {
		c.respond(ctx, 500, nil, "Failed to fetch token")
		return
	}
	if token == nil {
		c.respond(ctx, 404, nil, "Token not found")
		return
	}

	c.respond(ctx, 200, token, "")
}

func (c *tokensController) ListPublishedTokens(ctx *fasthttp.RequestCtx) {
	tokens, err := c.tokensService.ListPublished()
	if err != nil {
		c.respond(ctx, 500, nil, "Failed to list tokens")
		return
	}

	c.respond(ctx, 200, tokens, "")
}

func (c *tokensController) ListAllTokens(ctx *fasthttp.RequestCtx) {
	tokens, err := c.tokensService.ListTokens(false)
	if err != nil {
		c.respond(ctx, 500, nil, "Failed to list tokens")
		return
	}

	c.respond(ctx, 200, tokens, "")
}

func (c *tokensController) CheckhHealthz(ctx *fasthttp.RequestCtx) {
	ctx.Response.SetStatusCode(fasthttp.StatusOK)
	ctx.Response.SetBody([]byte("ok"))
}
