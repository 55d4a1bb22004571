package series

import "errors"

var (
	// ErrDegenerateRange means the scaler was fit on a constant series, which
	// would make the forward transform divide by zero.
	ErrDegenerateRange = errors.New("degenerate price range: max equals min")

	// ErrInsufficientData means too little history for a window or tail
	// request. Recoverable by waiting for more data.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNoData means a snapshot was requested on an empty history.
	ErrNoData = errors.New("no recorded predictions")

	// ErrAlreadyFit means a second fit was attempted on a scaler. The scale is
	// fixed once per session and never refit during live operation.
	ErrAlreadyFit = errors.New("scaler already fit")
)
