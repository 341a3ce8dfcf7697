//go:generate mockgen -destination=mock_handler.go -package=mocks github.com/fushengyk/binance-stream/pkg/stream Handler

package mocks
