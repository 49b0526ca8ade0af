package calendar

import "errors"

var ErrSlotTaken = errors.New("slot already taken")
