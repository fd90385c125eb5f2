// Package archive reads package metadata and payload listings from Debian
// (.deb) and RPM (.rpm) files without invoking dpkg or rpm.
package archive
