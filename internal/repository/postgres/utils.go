package postgres

import "fmt"

func wrapDBErr(op string, err error) error {
	return fmt.Errorf("%s:%w", op, translateDBErr(err))
}
