package mocks

//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/market-analyzer/internal/datasource DataSource
//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/market-analyzer/pkg/marketdata/provider Provider
//go:generate mockgen -destination=./mock_recorder.go -package=mocks github.com/rxtech-lab/market-analyzer/internal/recorder Recorder
