// Package gradle runs Gradle tasks for connectors inside disposable
// containers.
//
// A run patches two build descriptors in memory (the connector build.gradle
// and the shared acceptance-test plugin), mounts the patched copies over the
// minimal part of the repository the connector needs, executes one Gradle
// task and captures its outcome. Whatever the outcome, the writable Gradle
// dependency cache of the container is then merged into the shared read-only
// cache so later runs resolve dependencies without downloading them again.
//
// The container runtime, the repository source and secret provisioning are
// collaborators described by the interfaces in this package; pkg/environment
// implements them on top of Dagger.
package gradle
