/*
Package storage is the persistence boundary of voidmail. It serializes explicit table
snapshots handed over by the caller to two JSON documents on disk and deserializes them
back, one record per key. The gateway never reaches into the stores itself; saving and
loading always operate on snapshots passed in and maps handed out.
*/
package storage
