// Package sensor provides the environmental sensor drivers.
//
// Drivers implement Source. The iio driver reads a Bosch BMP280/BME280
// through the Linux Industrial I/O sysfs interface, the bmp280 driver
// talks to the same chip over I2C with periph.io, and the simulated driver
// produces a bounded random walk for bench testing.
package sensor
