package file

import "github.com/sirupsen/logrus"

// Option configures a Device at creation
type Option func(*Device)

// WithLogger sets the logger for open, create and close events. The default is the logrus
// standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Device) {
		if log != nil {
			d.log = log
		}
	}
}

// WithAdvisoryCapacity disables the check of transfers against the sector count. Sectors past
// the declared capacity can then be written, growing the file, and read back.
func WithAdvisoryCapacity() Option {
	return func(d *Device) {
		d.advisory = true
	}
}

// WithDataSync flushes writes with fdatasync where the platform has it, skipping the metadata
// update a full fsync performs.
func WithDataSync() Option {
	return func(d *Device) {
		d.dataSync = true
	}
}

// WithCapacityAttr records the sector count in an extended attribute of the backing file when
// it is opened. Failure to set the attribute is logged, not returned.
func WithCapacityAttr() Option {
	return func(d *Device) {
		d.recordAttr = true
	}
}
