//go:generate mockgen -destination=mock_publisher.go -package=mocks github.com/fushengyk/binance-stream/internal/collector Publisher

package mocks
