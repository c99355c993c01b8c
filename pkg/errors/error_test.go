package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeInvalidPeriod, "window must be positive, got %d", -1)
	suite.Equal(ErrCodeInvalidPeriod, err.Code)
	suite.Equal("window must be positive, got -1", err.Message)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeMarketDataFetchFailed, "binance klines", cause)
	suite.Equal(cause, err.Cause)
	suite.Equal("[700] binance klines: connection refused", err.Error())
	suite.Equal(cause, err.Unwrap())
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("no rows")
	err := Wrapf(ErrCodeDataNotFound, cause, "no data for symbol %s", "AAPL")
	suite.Equal("no data for symbol AAPL", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal("[100] invalid parameter", err.Error())
	suite.Nil(err.Unwrap())
}

func (suite *ErrorTestSuite) TestGetCode() {
	tests := []struct {
		name     string
		err      error
		expected ErrorCode
	}{
		{"nil error", nil, ErrCodeUnknown},
		{"plain error", errors.New("plain"), ErrCodeUnknown},
		{"coded error", New(ErrCodeSentimentEmpty, "empty"), ErrCodeSentimentEmpty},
		{"outermost code wins", Wrap(ErrCodeIndicatorCalculation, "rsi", New(ErrCodeDataNotFound, "none")), ErrCodeIndicatorCalculation},
		{"fmt wrapped coded error", fmt.Errorf("ctx: %w", New(ErrCodeInvalidTimespan, "bad")), ErrCodeInvalidTimespan},
		{"insufficient data", NewInsufficientDataError(20, 5, "", "not enough"), ErrCodeInsufficientData},
		{"wrapped insufficient data", fmt.Errorf("ctx: %w", NewInsufficientDataError(20, 5, "", "not enough")), ErrCodeInsufficientData},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, GetCode(tc.err))
		})
	}
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.True(HasCode(err, ErrCodeInvalidParameter))
	suite.False(HasCode(err, ErrCodeDataNotFound))
}

func (suite *ErrorTestSuite) TestIsValidation() {
	suite.True(IsValidation(New(ErrCodeInvalidPeriod, "bad period")))
	suite.True(IsValidation(NewInsufficientDataError(2, 1, "", "short")))
	suite.False(IsValidation(New(ErrCodeQueryFailed, "query")))
	suite.False(IsValidation(errors.New("plain")))
}

func (suite *ErrorTestSuite) TestAsError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")

	var coded *Error
	suite.True(As(err, &coded))
	suite.Equal(ErrCodeInvalidParameter, coded.Code)
}

func (suite *ErrorTestSuite) TestInsufficientDataError() {
	err := NewInsufficientDataError(14, 10, "SPY", "insufficient data for RSI calculation")
	suite.Equal(14, err.Required)
	suite.Equal(10, err.Actual)
	suite.Equal("SPY", err.Symbol)
	suite.Equal("[106] insufficient data for RSI calculation (required 14, got 10)", err.Error())
}

func (suite *ErrorTestSuite) TestNewInsufficientDataErrorf() {
	err := NewInsufficientDataErrorf(20, 5, "AAPL", "insufficient data for %s", "Bollinger Bands")
	suite.Equal("insufficient data for Bollinger Bands", err.Message)
	suite.True(IsInsufficientDataError(err))
	suite.True(IsInsufficientDataError(fmt.Errorf("wrapped: %w", err)))
	suite.False(IsInsufficientDataError(New(ErrCodeInvalidParameter, "x")))
}
