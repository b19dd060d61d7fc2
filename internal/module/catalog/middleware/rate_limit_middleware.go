package middleware

import (
	"context"

	"github.com/memelore/meme-token-catalog/internal/module/catalog/service"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

func RateLimitMiddleware(rateLimiterService *service.RateLimiterService, logger zerolog.Logger) func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			if string(ctx.Method()) == fasthttp.MethodOptions {
				handleCors(ctx)
				ctx.SetStatusCode(fasthttp.StatusNoContent)
				return
			}

			// keyed by API key when present, caller address otherwise
			clientKey := string(ctx.Request.Header.Peek("X-API-KEY"))
			if clientKey == "" {
				clientKey = ctx.RemoteIP().String()
			}

			allowed, err := rateLimiterService.Allow(context.Background(), clientKey)
			if err != nil {
				logger.Error().Err(err).Msg("Failed to check rate limiter")
				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
				ctx.SetBody([]byte("Rate limiter unavailable"))
				return
			}

			if !allowed {
				ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
				ctx.SetBody([]byte("Too Many Requests"))
				return
			}

			next(ctx)
		}
	}
}

func handleCors(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	ctx.Response.Header.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, UPDATE")
	ctx.Response.Header.Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, X-Extra-Header, Content-Type, Accept, Authorization")
	ctx.Response.Header.Set("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers, Cache-Control, Content-Language, Content-Type")
	ctx.Response.Header.Set("Access-Control-Allow-Credentials", "true")
	ctx.Response.Header.Set("Access-Control-Max-Age", "86400")
	ctx.SetContentType("application/json")
}
