// Package authv1 holds the generated auth.v1 messages and service stubs.
package authv1

//go:generate protoc -I ../../../../api --go_out=../../../.. --go_opt=module=github.com/dtroode/authkeeper --go-grpc_out=../../../.. --go-grpc_opt=module=github.com/dtroode/authkeeper auth/v1/auth.proto
